package financialdata

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Repository handles research-feed persistence against market.db.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new financial-data repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "financialdata").Logger(),
	}
}

// filterClause builds the WHERE clause for a feed query. tickerCol or
// sourceCol may be empty when the feed has no such column.
func filterClause(f ListFilter, tickerCol, dateCol, sourceCol string) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if f.Ticker != "" && tickerCol != "" {
		conds = append(conds, tickerCol+" = ?")
		args = append(args, strings.ToUpper(strings.TrimSpace(f.Ticker)))
	}
	if f.StartDate != "" {
		conds = append(conds, dateCol+" >= ?")
		args = append(args, f.StartDate)
	}
	if f.EndDate != "" {
		conds = append(conds, dateCol+" <= ?")
		args = append(args, f.EndDate)
	}
	if f.Source != "" && sourceCol != "" {
		conds = append(conds, sourceCol+" = ?")
		args = append(args, f.Source)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// list runs the shared count + page query pair for one feed.
func (r *Repository) list(table, columns, tickerCol, dateCol, sourceCol string,
	f ListFilter, scanRow func(*sql.Rows) error) (int, error) {

	where, args := filterClause(f, tickerCol, dateCol, sourceCol)

	var total int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM `+table+where, args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}

	query := `SELECT ` + columns + ` FROM ` + table + where +
		` ORDER BY ` + dateCol + ` DESC LIMIT ? OFFSET ?`
	rows, err := r.db.Query(query, append(args, f.limit(), f.offset())...)
	if err != nil {
		return 0, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scanRow(rows); err != nil {
			return 0, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
	}

	return total, rows.Err()
}

// UpsertInsiderTrade stores one insider transaction keyed by vendor id.
func (r *Repository) UpsertInsiderTrade(t *InsiderTrade) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}

	query := `INSERT OR REPLACE INTO insider_trades
		(id, ticker, insider_name, title, transaction_type, shares, price, value,
		 filed_at, transaction_date, collected_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		t.ID, strings.ToUpper(t.Ticker), t.InsiderName, t.Title, t.TransactionType,
		t.Shares, t.Price, t.Value, t.FiledAt, t.TransactionDate, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert insider trade for %s: %w", t.Ticker, err)
	}
	return nil
}

// ListInsiderTrades returns one page of insider trades plus the unpaged total.
func (r *Repository) ListInsiderTrades(f ListFilter) ([]InsiderTrade, int, error) {
	columns := `id, ticker, COALESCE(insider_name, ''), COALESCE(title, ''),
		COALESCE(transaction_type, ''), COALESCE(shares, 0), COALESCE(price, 0),
		COALESCE(value, 0), COALESCE(filed_at, ''), COALESCE(transaction_date, '')`

	var trades []InsiderTrade
	total, err := r.list("insider_trades", columns, "ticker", "transaction_date", "", f,
		func(rows *sql.Rows) error {
			var t InsiderTrade
			if err := rows.Scan(&t.ID, &t.Ticker, &t.InsiderName, &t.Title,
				&t.TransactionType, &t.Shares, &t.Price, &t.Value,
				&t.FiledAt, &t.TransactionDate); err != nil {
				return err
			}
			trades = append(trades, t)
			return nil
		})
	return trades, total, err
}

// UpsertPoliticalTrade stores one congressional disclosure keyed by vendor id.
func (r *Repository) UpsertPoliticalTrade(t *PoliticalTrade) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}

	query := `INSERT OR REPLACE INTO political_trades
		(id, ticker, politician, chamber, transaction_type, amount_range,
		 transaction_date, disclosed_at, collected_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		t.ID, strings.ToUpper(t.Ticker), t.Politician, t.Chamber, t.TransactionType,
		t.AmountRange, t.TransactionDate, t.DisclosedAt, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert political trade for %s: %w", t.Ticker, err)
	}
	return nil
}

// ListPoliticalTrades returns one page of congressional trades.
func (r *Repository) ListPoliticalTrades(f ListFilter) ([]PoliticalTrade, int, error) {
	columns := `id, ticker, COALESCE(politician, ''), COALESCE(chamber, ''),
		COALESCE(transaction_type, ''), COALESCE(amount_range, ''),
		COALESCE(transaction_date, ''), COALESCE(disclosed_at, '')`

	var trades []PoliticalTrade
	total, err := r.list("political_trades", columns, "ticker", "transaction_date", "", f,
		func(rows *sql.Rows) error {
			var t PoliticalTrade
			if err := rows.Scan(&t.ID, &t.Ticker, &t.Politician, &t.Chamber,
				&t.TransactionType, &t.AmountRange, &t.TransactionDate,
				&t.DisclosedAt); err != nil {
				return err
			}
			trades = append(trades, t)
			return nil
		})
	return trades, total, err
}

// UpsertHedgeFundTrade stores one 13F position change.
func (r *Repository) UpsertHedgeFundTrade(t *HedgeFundTrade) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}

	query := `INSERT OR REPLACE INTO hedge_fund_trades
		(id, ticker, fund_name, action, shares, value, quarter, filed_at, collected_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		t.ID, strings.ToUpper(t.Ticker), t.FundName, t.Action, t.Shares, t.Value,
		t.Quarter, t.FiledAt, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert hedge fund trade for %s: %w", t.Ticker, err)
	}
	return nil
}

// ListHedgeFundTrades returns one page of 13F position changes.
func (r *Repository) ListHedgeFundTrades(f ListFilter) ([]HedgeFundTrade, int, error) {
	columns := `id, ticker, COALESCE(fund_name, ''), COALESCE(action, ''),
		COALESCE(shares, 0), COALESCE(value, 0), COALESCE(quarter, ''),
		COALESCE(filed_at, '')`

	var trades []HedgeFundTrade
	total, err := r.list("hedge_fund_trades", columns, "ticker", "filed_at", "fund_name", f,
		func(rows *sql.Rows) error {
			var t HedgeFundTrade
			if err := rows.Scan(&t.ID, &t.Ticker, &t.FundName, &t.Action,
				&t.Shares, &t.Value, &t.Quarter, &t.FiledAt); err != nil {
				return err
			}
			trades = append(trades, t)
			return nil
		})
	return trades, total, err
}

// UpsertNewsArticle stores one news item.
func (r *Repository) UpsertNewsArticle(a *NewsArticle) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	query := `INSERT OR REPLACE INTO financial_news
		(id, title, summary, url, source, tickers, sentiment, published_at, collected_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		a.ID, a.Title, a.Summary, a.URL, a.Source, a.Tickers, a.Sentiment,
		a.PublishedAt, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert news article %q: %w", a.Title, err)
	}
	return nil
}

// ListNewsArticles returns one page of news. The ticker filter matches the
// comma-separated tickers column by substring.
func (r *Repository) ListNewsArticles(f ListFilter) ([]NewsArticle, int, error) {
	// The tickers column holds a comma-separated list, so the shared exact
	// match does not apply; handle the ticker filter here instead.
	ticker := f.Ticker
	f.Ticker = ""

	var conds []string
	var args []interface{}
	if ticker != "" {
		conds = append(conds, "tickers LIKE ?")
		args = append(args, "%"+strings.ToUpper(strings.TrimSpace(ticker))+"%")
	}
	if f.StartDate != "" {
		conds = append(conds, "published_at >= ?")
		args = append(args, f.StartDate)
	}
	if f.EndDate != "" {
		conds = append(conds, "published_at <= ?")
		args = append(args, f.EndDate)
	}
	if f.Source != "" {
		conds = append(conds, "source = ?")
		args = append(args, f.Source)
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM financial_news`+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count financial_news: %w", err)
	}

	query := `SELECT id, title, COALESCE(summary, ''), COALESCE(url, ''),
		COALESCE(source, ''), COALESCE(tickers, ''), COALESCE(sentiment, ''),
		COALESCE(published_at, '')
		FROM financial_news` + where + ` ORDER BY published_at DESC LIMIT ? OFFSET ?`

	rows, err := r.db.Query(query, append(args, f.limit(), f.offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query financial_news: %w", err)
	}
	defer rows.Close()

	var articles []NewsArticle
	for rows.Next() {
		var a NewsArticle
		if err := rows.Scan(&a.ID, &a.Title, &a.Summary, &a.URL, &a.Source,
			&a.Tickers, &a.Sentiment, &a.PublishedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan financial_news row: %w", err)
		}
		articles = append(articles, a)
	}

	return articles, total, rows.Err()
}

// UpsertAnalystRating stores one rating action keyed by vendor id.
func (r *Repository) UpsertAnalystRating(a *AnalystRating) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	query := `INSERT OR REPLACE INTO analyst_sentiment
		(id, ticker, analyst, firm, rating, action, price_target, rated_at, collected_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		a.ID, strings.ToUpper(a.Ticker), a.Analyst, a.Firm, a.Rating, a.Action,
		a.PriceTarget, a.RatedAt, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert analyst rating for %s: %w", a.Ticker, err)
	}
	return nil
}

// GetAnalystSentiment returns a symbol's rating actions, newest first.
func (r *Repository) GetAnalystSentiment(symbol string, limit int) ([]AnalystRating, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, ticker, COALESCE(analyst, ''), COALESCE(firm, ''),
		COALESCE(rating, ''), COALESCE(action, ''), COALESCE(price_target, 0),
		COALESCE(rated_at, '')
		FROM analyst_sentiment WHERE ticker = ?
		ORDER BY rated_at DESC LIMIT ?`

	rows, err := r.db.Query(query, strings.ToUpper(strings.TrimSpace(symbol)), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyst sentiment for %s: %w", symbol, err)
	}
	defer rows.Close()

	var ratings []AnalystRating
	for rows.Next() {
		var a AnalystRating
		if err := rows.Scan(&a.ID, &a.Ticker, &a.Analyst, &a.Firm, &a.Rating,
			&a.Action, &a.PriceTarget, &a.RatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan analyst rating: %w", err)
		}
		ratings = append(ratings, a)
	}

	return ratings, rows.Err()
}

// UpsertBankReport stores one bank research summary.
func (r *Repository) UpsertBankReport(b *BankReport) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}

	query := `INSERT OR REPLACE INTO bank_reports
		(id, bank_name, title, summary, url, report_date, collected_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		b.ID, b.BankName, b.Title, b.Summary, b.URL, b.ReportDate, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert bank report %q: %w", b.Title, err)
	}
	return nil
}

// ListBankReports returns one page of bank research summaries.
func (r *Repository) ListBankReports(f ListFilter) ([]BankReport, int, error) {
	columns := `id, bank_name, COALESCE(title, ''), COALESCE(summary, ''),
		COALESCE(url, ''), COALESCE(report_date, '')`

	var reports []BankReport
	total, err := r.list("bank_reports", columns, "", "report_date", "bank_name", f,
		func(rows *sql.Rows) error {
			var b BankReport
			if err := rows.Scan(&b.ID, &b.BankName, &b.Title, &b.Summary,
				&b.URL, &b.ReportDate); err != nil {
				return err
			}
			reports = append(reports, b)
			return nil
		})
	return reports, total, err
}

// UpsertYouTubeVideo stores one video summary.
func (r *Repository) UpsertYouTubeVideo(v *YouTubeVideo) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}

	query := `INSERT OR REPLACE INTO youtube_videos
		(id, channel, title, summary, url, published_at, collected_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		v.ID, v.Channel, v.Title, v.Summary, v.URL, v.PublishedAt, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert video %q: %w", v.Title, err)
	}
	return nil
}

// ListYouTubeVideos returns one page of video summaries.
func (r *Repository) ListYouTubeVideos(f ListFilter) ([]YouTubeVideo, int, error) {
	columns := `id, channel, COALESCE(title, ''), COALESCE(summary, ''),
		COALESCE(url, ''), COALESCE(published_at, '')`

	var videos []YouTubeVideo
	total, err := r.list("youtube_videos", columns, "", "published_at", "channel", f,
		func(rows *sql.Rows) error {
			var v YouTubeVideo
			if err := rows.Scan(&v.ID, &v.Channel, &v.Title, &v.Summary,
				&v.URL, &v.PublishedAt); err != nil {
				return err
			}
			videos = append(videos, v)
			return nil
		})
	return videos, total, err
}
