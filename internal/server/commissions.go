package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	commissiondomain "github.com/palcolabs/palco/internal/commission/domain"
	"github.com/palcolabs/palco/internal/rate"
	"github.com/palcolabs/palco/pkg/db/pagination"
	"github.com/shopspring/decimal"
)

func (s *Server) ListCommissions(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Status     string `form:"status"`
		Type       string `form:"type"`
		ArtistID   string `form:"artist_id"`
		ReferralID string `form:"referral_id"`
		From       string `form:"from"`
		To         string `form:"to"`
		Search     string `form:"search"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	page := query.Pagination.Normalize()
	filter := commissiondomain.ListFilter{
		Status: commissiondomain.Status(strings.ToUpper(query.Status)),
		Type:   commissiondomain.Type(strings.ToUpper(query.Type)),
		Search: strings.TrimSpace(query.Search),
		Page:   page.Page,
		Limit:  page.Limit,
	}

	if query.ArtistID != "" && query.ReferralID != "" {
		AbortWithError(c, newValidationError("artist_id", "invalid_beneficiary", "artist_id and referral_id are mutually exclusive"))
		return
	}
	if query.ArtistID != "" {
		id, err := parseID(query.ArtistID)
		if err != nil {
			AbortWithError(c, newValidationError("artist_id", "invalid_id", "must be a numeric id"))
			return
		}
		filter.BeneficiaryKind = commissiondomain.BeneficiaryArtist
		filter.BeneficiaryID = id
	}
	if query.ReferralID != "" {
		id, err := parseID(query.ReferralID)
		if err != nil {
			AbortWithError(c, newValidationError("referral_id", "invalid_id", "must be a numeric id"))
			return
		}
		filter.BeneficiaryKind = commissiondomain.BeneficiaryReferrer
		filter.BeneficiaryID = id
	}

	var err error
	if filter.From, err = parseTimeParam(query.From); err != nil {
		AbortWithError(c, newValidationError("from", "invalid_time", "must be RFC3339 or YYYY-MM-DD"))
		return
	}
	if filter.To, err = parseTimeParam(query.To); err != nil {
		AbortWithError(c, newValidationError("to", "invalid_time", "must be RFC3339 or YYYY-MM-DD"))
		return
	}

	resp, err := s.reportingSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondList(c, resp.Commissions, &pagination.PageInfo{
		Page:  resp.Page,
		Limit: resp.Limit,
		Total: resp.Total,
	})
}

func (s *Server) CommissionSummary(c *gin.Context) {
	summary, err := s.reportingSvc.Summary(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, summary)
}

func (s *Server) BeneficiariesPending(c *gin.Context) {
	pending, err := s.reportingSvc.BeneficiariesPending(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, pending)
}

// PayAll settles every pending commission of one beneficiary. Exactly
// one of artist_id or referral_id must be given. The acting admin is
// identified by explicit headers, not ambient session state.
func (s *Server) PayAll(c *gin.Context) {
	artistParam := strings.TrimSpace(c.Query("artist_id"))
	referralParam := strings.TrimSpace(c.Query("referral_id"))
	if (artistParam == "") == (referralParam == "") {
		AbortWithError(c, newValidationError("artist_id", "invalid_beneficiary", "exactly one of artist_id or referral_id is required"))
		return
	}

	kind := commissiondomain.BeneficiaryArtist
	raw := artistParam
	if referralParam != "" {
		kind = commissiondomain.BeneficiaryReferrer
		raw = referralParam
	}
	id, err := parseID(raw)
	if err != nil {
		AbortWithError(c, newValidationError("beneficiary", "invalid_id", "must be a numeric id"))
		return
	}

	actor := commissiondomain.Actor{
		ID:   strings.TrimSpace(c.GetHeader("X-Actor-Id")),
		Name: strings.TrimSpace(c.GetHeader("X-Actor-Name")),
	}
	if actor.ID == "" {
		AbortWithError(c, newValidationError("X-Actor-Id", "missing_actor", "settlement requires the acting admin identity"))
		return
	}

	result, err := s.settleSvc.SettleAll(c.Request.Context(), kind, id, actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondData(c, gin.H{
		"paid":              result.PaidCount,
		"paid_amount_cents": result.PaidAmountCents,
	})
}

// PreviewCommission computes the amount the resolver would accrue for
// the given inputs without persisting anything. Display estimates call
// this instead of reimplementing the formulas client-side.
func (s *Server) PreviewCommission(c *gin.Context) {
	typ := commissiondomain.Type(strings.ToUpper(strings.TrimSpace(c.Query("type"))))

	var amountCents int64
	switch typ {
	case commissiondomain.TypeArtistProduct, commissiondomain.TypeCustomization:
		price, err := parseDecimalParam(c.Query("unit_sale_price"))
		if err != nil {
			AbortWithError(c, newValidationError("unit_sale_price", "invalid_amount", "must be a decimal"))
			return
		}
		cost, err := parseDecimalParam(c.Query("unit_manufacturing_cost"))
		if err != nil {
			AbortWithError(c, newValidationError("unit_manufacturing_cost", "invalid_amount", "must be a decimal"))
			return
		}
		ratePct, err := parseDecimalParam(c.Query("rate_percent"))
		if err != nil {
			AbortWithError(c, newValidationError("rate_percent", "invalid_amount", "must be a decimal"))
			return
		}
		quantity, err := strconv.ParseInt(c.DefaultQuery("quantity", "1"), 10, 64)
		if err != nil || quantity < 1 {
			AbortWithError(c, newValidationError("quantity", "invalid_quantity", "must be a positive integer"))
			return
		}
		amountCents = rate.ArtistProductCommission(price, cost, ratePct, quantity)

	case commissiondomain.TypeTicket:
		price, err := parseDecimalParam(c.Query("price"))
		if err != nil {
			AbortWithError(c, newValidationError("price", "invalid_amount", "must be a decimal"))
			return
		}
		fee, err := parseDecimalParam(c.Query("platform_fee_percent"))
		if err != nil {
			AbortWithError(c, newValidationError("platform_fee_percent", "invalid_amount", "must be a decimal"))
			return
		}
		platformCents, artistCents := rate.TicketSplit(price, fee)
		respondData(c, gin.H{
			"type":                  typ,
			"platform_amount_cents": platformCents,
			"artist_amount_cents":   artistCents,
		})
		return

	case commissiondomain.TypeReferral:
		base, err := parseDecimalParam(c.Query("base_amount"))
		if err != nil {
			AbortWithError(c, newValidationError("base_amount", "invalid_amount", "must be a decimal"))
			return
		}
		ratePct, err := parseDecimalParam(c.Query("rate_percent"))
		if err != nil {
			AbortWithError(c, newValidationError("rate_percent", "invalid_amount", "must be a decimal"))
			return
		}
		amountCents = rate.ReferralCommission(base, ratePct)

	default:
		AbortWithError(c, newValidationError("type", "invalid_type", "unknown commission type"))
		return
	}

	respondData(c, gin.H{
		"type":         typ,
		"amount_cents": amountCents,
	})
}

func (s *Server) ExportCommissions(c *gin.Context) {
	from, err := parseTimeParam(c.Query("from"))
	if err != nil || from == nil {
		AbortWithError(c, newValidationError("from", "invalid_time", "required, RFC3339 or YYYY-MM-DD"))
		return
	}
	to, err := parseTimeParam(c.Query("to"))
	if err != nil || to == nil {
		AbortWithError(c, newValidationError("to", "invalid_time", "required, RFC3339 or YYYY-MM-DD"))
		return
	}

	format := commissiondomain.ExportFormat(strings.ToLower(c.DefaultQuery("format", "csv")))
	req := commissiondomain.ExportRequest{
		From: *from,
		To:   *to,
		Type: commissiondomain.Type(strings.ToUpper(c.Query("type"))),
	}

	result, err := s.exportSvc.Export(c.Request.Context(), req, format)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	contentType := "text/csv"
	if result.Format == commissiondomain.ExportFormatJSON {
		contentType = "application/json"
	}
	c.Header("X-Export-Checksum", result.Checksum)
	c.Header("X-Export-Count", strconv.Itoa(result.Count))
	c.Data(200, contentType, result.Data)
}

func parseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}

func parseDecimalParam(raw string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(raw))
}

func parseTimeParam(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
