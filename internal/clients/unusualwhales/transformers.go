package unusualwhales

import (
	"strconv"
	"strings"
)

// The vendor reports most numerics as strings and uses its own field names.
// These raw types and transformers map vendor payloads onto the internal
// schema so nothing downstream depends on vendor naming.

type rawFlowTrade struct {
	ID           string `json:"id"`
	Ticker       string `json:"ticker"`
	OptionType   string `json:"option_type"`
	Strike       string `json:"strike"`
	Expiry       string `json:"expiry"`
	TotalPremium string `json:"total_premium"`
	TotalSize    int64  `json:"total_size"`
	Volume       int64  `json:"volume"`
	OpenInterest int64  `json:"open_interest"`
	Sentiment    string `json:"sentiment"`
	ExecutedAt   string `json:"executed_at"`
}

func transformFlowTrade(r rawFlowTrade) FlowTrade {
	return FlowTrade{
		ID:           r.ID,
		Ticker:       strings.ToUpper(r.Ticker),
		ContractType: strings.ToLower(r.OptionType),
		Strike:       parseVendorFloat(r.Strike),
		Expiry:       r.Expiry,
		Premium:      parseVendorFloat(r.TotalPremium),
		Size:         r.TotalSize,
		Volume:       r.Volume,
		OpenInterest: r.OpenInterest,
		Sentiment:    strings.ToLower(r.Sentiment),
		ExecutedAt:   r.ExecutedAt,
	}
}

type rawDarkPoolTrade struct {
	TrackingID string `json:"tracking_id"`
	Ticker     string `json:"ticker"`
	Size       int64  `json:"size"`
	Price      string `json:"price"`
	Premium    string `json:"premium"`
	ExecutedAt string `json:"executed_at"`
}

func transformDarkPoolTrade(r rawDarkPoolTrade) DarkPoolTrade {
	return DarkPoolTrade{
		ID:         r.TrackingID,
		Ticker:     strings.ToUpper(r.Ticker),
		Volume:     r.Size,
		Price:      parseVendorFloat(r.Price),
		Premium:    parseVendorFloat(r.Premium),
		ExecutedAt: r.ExecutedAt,
	}
}

type rawInsiderTrade struct {
	ID              string `json:"id"`
	Ticker          string `json:"ticker"`
	OwnerName       string `json:"owner_name"`
	OfficerTitle    string `json:"officer_title"`
	TransactionCode string `json:"transaction_code"`
	Shares          string `json:"shares"`
	PricePerShare   string `json:"price_per_share"`
	TotalValue      string `json:"total_value"`
	FilingDate      string `json:"filing_date"`
	TransactionDate string `json:"transaction_date"`
}

// insiderTransactionType maps SEC Form 4 transaction codes to readable types.
func insiderTransactionType(code string) string {
	switch strings.ToUpper(code) {
	case "P":
		return "buy"
	case "S":
		return "sell"
	case "A":
		return "award"
	case "G":
		return "gift"
	default:
		return strings.ToLower(code)
	}
}

func transformInsiderTrade(r rawInsiderTrade) InsiderTrade {
	return InsiderTrade{
		ID:              r.ID,
		Ticker:          strings.ToUpper(r.Ticker),
		InsiderName:     r.OwnerName,
		Title:           r.OfficerTitle,
		TransactionType: insiderTransactionType(r.TransactionCode),
		Shares:          parseVendorFloat(r.Shares),
		Price:           parseVendorFloat(r.PricePerShare),
		Value:           parseVendorFloat(r.TotalValue),
		FiledAt:         r.FilingDate,
		TransactionDate: r.TransactionDate,
	}
}

type rawPoliticalTrade struct {
	ID              string `json:"id"`
	Ticker          string `json:"ticker"`
	Reporter        string `json:"reporter"`
	Chamber         string `json:"chamber"`
	TxnType         string `json:"txn_type"`
	Amounts         string `json:"amounts"`
	TransactionDate string `json:"transaction_date"`
	DisclosureDate  string `json:"disclosure_date"`
}

func transformPoliticalTrade(r rawPoliticalTrade) PoliticalTrade {
	return PoliticalTrade{
		ID:              r.ID,
		Ticker:          strings.ToUpper(r.Ticker),
		Politician:      r.Reporter,
		Chamber:         strings.ToLower(r.Chamber),
		TransactionType: strings.ToLower(r.TxnType),
		AmountRange:     r.Amounts,
		TransactionDate: r.TransactionDate,
		DisclosedAt:     r.DisclosureDate,
	}
}

type rawAnalystRating struct {
	ID          string `json:"id"`
	Ticker      string `json:"ticker"`
	AnalystName string `json:"analyst_name"`
	FirmName    string `json:"firm_name"`
	Rating      string `json:"rating"`
	Action      string `json:"action"`
	PriceTarget string `json:"price_target"`
	Timestamp   string `json:"timestamp"`
}

func transformAnalystRating(r rawAnalystRating) AnalystRating {
	return AnalystRating{
		ID:          r.ID,
		Ticker:      strings.ToUpper(r.Ticker),
		Analyst:     r.AnalystName,
		Firm:        r.FirmName,
		Rating:      strings.ToLower(r.Rating),
		Action:      strings.ToLower(r.Action),
		PriceTarget: parseVendorFloat(r.PriceTarget),
		RatedAt:     r.Timestamp,
	}
}

// parseVendorFloat tolerates empty and "null" string numerics.
func parseVendorFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
