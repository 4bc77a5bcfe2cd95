package sources

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"torrentier/logging"
	"torrentier/requester"
	"torrentier/schema"
	"torrentier/utils"
)

const defaultABNBaseURL = "https://abn.lol"

const (
	abnCategorySeries = "1"
	abnCategoryMovies = "2"

	abnEnrichLimit   = 15
	abnEnrichTimeout = 10 * time.Second
)

var (
	abnSizeRegex     = regexp.MustCompile(`(?i)([\d,.]+ [KMGT]?[O])`)
	abnHashSpanRegex = regexp.MustCompile(`(?i)Hash\s*:\s*<span[^>]*>([a-fA-F0-9]{40})</span>`)
	abnHashBareRegex = regexp.MustCompile(`(?i)Hash[:\s]+([a-fA-F0-9]{40})`)
	spacesRegex      = regexp.MustCompile(`\s+`)
)

// ABN scrapes a private tracker that has no API: a form login with a CSRF
// token establishes a cookie session, searches are HTML listing pages, and
// the info hash only appears on per-release detail pages.
type ABN struct {
	username string
	password string
	baseURL  string
	client   *http.Client

	mu       sync.Mutex
	loggedIn bool
}

func NewABN(username, password string) *ABN {
	jar, _ := cookiejar.New(nil)
	return &ABN{
		username: username,
		password: password,
		baseURL:  defaultABNBaseURL,
		client:   &http.Client{Timeout: 15 * time.Second, Jar: jar},
	}
}

func (a *ABN) Name() schema.Source { return schema.SourceABN }

// ensureSession logs in once and reuses the cookie session afterwards. Any
// failure leaves the adapter unauthenticated so searches fail closed.
func (a *ABN) ensureSession(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.loggedIn {
		return nil
	}

	loginURL := a.baseURL + "/Home/Login"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loginURL, nil)
	if err != nil {
		return err
	}
	requester.SpoofBrowserHeaders(req)
	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch login page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to parse login page: %w", err)
	}
	token, ok := doc.Find(`input[name="__RequestVerificationToken"]`).Attr("value")
	if !ok || token == "" {
		return fmt.Errorf("csrf token not found on login page")
	}

	form := url.Values{}
	form.Set("Username", a.username)
	form.Set("Password", a.password)
	form.Set("RememberMe", "true")
	form.Set("__RequestVerificationToken", token)

	postReq, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	requester.SpoofBrowserHeaders(postReq)
	postReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	postResp, err := a.client.Do(postReq)
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer postResp.Body.Close()
	if postResp.StatusCode != http.StatusOK {
		return fmt.Errorf("login returned status %d", postResp.StatusCode)
	}

	body, err := io.ReadAll(postResp.Body)
	if err != nil {
		return err
	}
	html := string(body)
	if !strings.Contains(html, "logoutForm") &&
		!strings.Contains(html, "Logout") &&
		!strings.Contains(html, "Déconnexion") {
		return fmt.Errorf("login rejected, check credentials")
	}

	logging.Info().Msg("abn session established")
	a.loggedIn = true
	return nil
}

// Search queries the localized title and the original title in parallel,
// unions the listings by release ID and then fetches detail pages to fill in
// the hashes of the first results.
func (a *ABN) Search(ctx context.Context, query schema.MediaQuery) []schema.TorrentCandidate {
	if a.username == "" || a.password == "" {
		return nil
	}
	if err := a.ensureSession(ctx); err != nil {
		logging.Error().Err(err).Msg("abn login failed")
		return nil
	}

	titles := []string{query.Title}
	if query.OriginalTitle != "" && query.OriginalTitle != query.Title {
		titles = append(titles, query.OriginalTitle)
	}

	type task struct {
		q        string
		category string
	}
	var tasks []task
	for _, title := range titles {
		if query.IsSeries() {
			if query.Episode > 0 {
				tasks = append(tasks, task{episodeQuery(title, query.Season, query.Episode), abnCategorySeries})
			}
			tasks = append(tasks, task{seasonQuery(title, query.Season), abnCategorySeries})
		} else {
			tasks = append(tasks, task{strings.TrimSpace(title + " " + query.Year), abnCategoryMovies})
		}
	}

	lists := make([][]schema.TorrentCandidate, len(tasks))
	var wg sync.WaitGroup
	for i, t := range tasks {
		wg.Add(1)
		go func(i int, t task) {
			defer wg.Done()
			lists[i] = a.search(ctx, t.q, t.category)
		}(i, t)
	}
	wg.Wait()

	merged := unionByReleaseID(lists...)
	a.enrichWithHashes(ctx, merged)
	return merged
}

func (a *ABN) search(ctx context.Context, query, category string) []schema.TorrentCandidate {
	params := url.Values{}
	params.Set("Search", query)
	params.Set("UserId", "")
	params.Set("YearOperator", "≥")
	params.Set("Year", "")
	params.Set("RatingOperator", "≥")
	params.Set("Rating", "")
	params.Set("Pending", "")
	params.Set("Pack", "")
	params.Set("Scene", "")
	params.Set("Freeleech", "")
	params.Set("SortOn", "Created")
	params.Set("SortOrder", "desc")
	params.Add("SelectedCats", category)

	searchURL := fmt.Sprintf("%s/Torrent?%s", a.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil
	}
	requester.SpoofBrowserHeaders(req)
	resp, err := a.client.Do(req)
	if err != nil {
		logging.Warn().Err(err).Str("query", query).Msg("abn search failed")
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		logging.Warn().Int("status", resp.StatusCode).Str("query", query).Msg("abn search returned error status")
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		logging.Warn().Err(err).Msg("abn listing parse failed")
		return nil
	}

	var out []schema.TorrentCandidate
	doc.Find(`a[href^="/Torrent/Details"]`).Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		u, err := url.Parse(href)
		if err != nil {
			return
		}
		releaseID := u.Query().Get("ReleaseId")
		if releaseID == "" {
			return
		}
		name := spacesRegex.ReplaceAllString(strings.TrimSpace(link.Text()), " ")
		if name == "" {
			return
		}

		row := link.Closest("tr")
		var sizeBytes int64
		if m := abnSizeRegex.FindString(row.Text()); m != "" {
			sizeBytes = utils.ParseSize(m)
		}

		// The seeders and leechers are the last two numeric cells of the row.
		var numbers []int
		row.Find("td").Each(func(_ int, cell *goquery.Selection) {
			if n, err := strconv.Atoi(strings.TrimSpace(cell.Text())); err == nil {
				numbers = append(numbers, n)
			}
		})
		var seeders, leechers int
		if len(numbers) >= 2 {
			seeders = numbers[len(numbers)-2]
			leechers = numbers[len(numbers)-1]
		}

		out = append(out, schema.TorrentCandidate{
			Name:         name,
			SizeBytes:    sizeBytes,
			Source:       schema.SourceABN,
			TrackerLabel: "ABN",
			DownloadURL:  fmt.Sprintf("%s/Torrent/Download?ReleaseId=%s", a.baseURL, releaseID),
			Seeders:      seeders,
			Leechers:     leechers,
			ReleaseID:    releaseID,
		})
	})
	logging.Debug().Int("count", len(out)).Str("query", query).Msg("abn listing parsed")
	return out
}

// enrichWithHashes fills the info hash of the first results by fetching their
// detail pages in parallel, under a shared deadline. Results whose detail
// fetch fails keep an empty hash.
func (a *ABN) enrichWithHashes(ctx context.Context, results []schema.TorrentCandidate) {
	limit := len(results)
	if limit > abnEnrichLimit {
		limit = abnEnrichLimit
	}
	if limit == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, abnEnrichTimeout)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < limit; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			hash, err := a.fetchHash(ctx, results[i].ReleaseID)
			if err != nil {
				logging.Debug().Err(err).Str("release", results[i].ReleaseID).Msg("abn hash fetch failed")
				return
			}
			results[i].InfoHash = hash
		}(i)
	}
	wg.Wait()
}

func (a *ABN) fetchHash(ctx context.Context, releaseID string) (string, error) {
	detailsURL := fmt.Sprintf("%s/Torrent/Details?ReleaseId=%s", a.baseURL, releaseID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, detailsURL, nil)
	if err != nil {
		return "", err
	}
	requester.SpoofBrowserHeaders(req)
	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("details page returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if m := abnHashSpanRegex.FindSubmatch(body); m != nil {
		return strings.ToLower(string(m[1])), nil
	}
	if m := abnHashBareRegex.FindSubmatch(body); m != nil {
		return strings.ToLower(string(m[1])), nil
	}
	return "", fmt.Errorf("no hash on details page")
}

// DownloadTorrent fetches a .torrent file through the authenticated session.
// Plain unauthenticated fetches of the same URL return the login page.
func (a *ABN) DownloadTorrent(ctx context.Context, downloadURL string) ([]byte, error) {
	if err := a.ensureSession(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, err
	}
	requester.SpoofBrowserHeaders(req)
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("torrent download failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("torrent download returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if bytes.Contains(body, []byte("<html")) {
		return nil, fmt.Errorf("torrent download returned html, session likely expired")
	}
	return body, nil
}
