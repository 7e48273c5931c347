package poster

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	tmdbDefaultBaseURL  = "https://api.themoviedb.org/3"
	tmdbImageBaseURL    = "https://image.tmdb.org/t/p"
	tmdbPosterSize      = "w342"
	tmdbDetailsSize     = "w500"
	tmdbDefaultLanguage = "fr-FR"
)

// TMDBClient talks to The Movie Database API. It powers both poster lookups
// during sync and the on-demand details endpoint.
type TMDBClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewTMDBClient(apiKey string) *TMDBClient {
	return &TMDBClient{
		apiKey:  apiKey,
		baseURL: tmdbDefaultBaseURL,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type tmdbSearchResponse struct {
	Results []tmdbSearchResult `json:"results"`
}

type tmdbSearchResult struct {
	ID         int    `json:"id"`
	PosterPath string `json:"poster_path"`
}

// SearchPoster looks up a poster for a title on one media type ("movie" or
// "tv"). year and language narrow the search; year 0 means any. Returns an
// empty URL when nothing with a poster matched.
func (t *TMDBClient) SearchPoster(ctx context.Context, mediaType, title string, year int, language string) (string, error) {
	result, err := t.search(ctx, mediaType, title, year, language)
	if err != nil {
		return "", err
	}
	if result == nil || result.PosterPath == "" {
		return "", nil
	}
	return fmt.Sprintf("%s/%s%s", tmdbImageBaseURL, tmdbPosterSize, result.PosterPath), nil
}

func (t *TMDBClient) search(ctx context.Context, mediaType, title string, year int, language string) (*tmdbSearchResult, error) {
	params := url.Values{}
	params.Set("api_key", t.apiKey)
	params.Set("query", title)
	params.Set("language", language)
	params.Set("include_adult", "false")
	if year > 0 {
		if mediaType == "tv" {
			params.Set("first_air_date_year", fmt.Sprintf("%d", year))
		} else {
			params.Set("year", fmt.Sprintf("%d", year))
		}
	}

	endpoint := fmt.Sprintf("%s/search/%s?%s", t.baseURL, mediaType, params.Encode())

	var response tmdbSearchResponse
	if err := t.getJSON(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	for i := range response.Results {
		if response.Results[i].PosterPath != "" {
			return &response.Results[i], nil
		}
	}
	if len(response.Results) > 0 {
		return &response.Results[0], nil
	}
	return nil, nil
}

// Details is the distilled metadata payload for one title, shaped for the
// front-end's details panel.
type Details struct {
	Title        string `json:"title"`
	Year         string `json:"year"`
	Released     string `json:"released"`
	Runtime      string `json:"runtime"`
	Genre        string `json:"genre"`
	Director     string `json:"director"`
	Writer       string `json:"writer"`
	Actors       string `json:"actors"`
	Plot         string `json:"plot"`
	Language     string `json:"language"`
	Country      string `json:"country"`
	Awards       string `json:"awards"`
	Poster       string `json:"poster"`
	IMDBRating   string `json:"imdbRating"`
	IMDBVotes    string `json:"imdbVotes"`
	IMDBID       string `json:"imdbID"`
	Type         string `json:"type"`
	TotalSeasons string `json:"totalSeasons,omitempty"`
}

type tmdbDetailsResponse struct {
	Title            string  `json:"title"`
	Name             string  `json:"name"`
	Overview         string  `json:"overview"`
	ReleaseDate      string  `json:"release_date"`
	FirstAirDate     string  `json:"first_air_date"`
	Runtime          int     `json:"runtime"`
	EpisodeRunTime   []int   `json:"episode_run_time"`
	NumberOfSeasons  int     `json:"number_of_seasons"`
	PosterPath       string  `json:"poster_path"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int64   `json:"vote_count"`
	OriginalLanguage string  `json:"original_language"`
	Genres           []struct {
		Name string `json:"name"`
	} `json:"genres"`
	ProductionCountries []struct {
		Name string `json:"name"`
	} `json:"production_countries"`
	CreatedBy []struct {
		Name string `json:"name"`
	} `json:"created_by"`
	Credits struct {
		Cast []struct {
			Name string `json:"name"`
		} `json:"cast"`
		Crew []struct {
			Job  string `json:"job"`
			Name string `json:"name"`
		} `json:"crew"`
	} `json:"credits"`
	ExternalIDs struct {
		IMDBID string `json:"imdb_id"`
	} `json:"external_ids"`
}

// Lookup searches a title as the given media type ("movie" or "tv") and
// returns the full details of the best match. Returns nil when nothing
// matched.
func (t *TMDBClient) Lookup(ctx context.Context, mediaType, title string, year int) (*Details, error) {
	result, err := t.search(ctx, mediaType, title, year, tmdbDefaultLanguage)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/%s/%d?api_key=%s&language=%s&append_to_response=credits,external_ids",
		t.baseURL, mediaType, result.ID, t.apiKey, tmdbDefaultLanguage)

	var response tmdbDetailsResponse
	if err := t.getJSON(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	return buildDetails(mediaType, &response), nil
}

func buildDetails(mediaType string, r *tmdbDetailsResponse) *Details {
	details := &Details{
		Title:    firstNonEmpty(r.Title, r.Name),
		Plot:     r.Overview,
		Language: r.OriginalLanguage,
		Awards:   "N/A",
		IMDBID:   r.ExternalIDs.IMDBID,
		Type:     "movie",
	}

	released := firstNonEmpty(r.ReleaseDate, r.FirstAirDate)
	details.Released = released
	if len(released) >= 4 {
		details.Year = released[:4]
	}

	runtime := r.Runtime
	if runtime == 0 && len(r.EpisodeRunTime) > 0 {
		runtime = r.EpisodeRunTime[0]
	}
	if runtime > 0 {
		details.Runtime = fmt.Sprintf("%d min", runtime)
	}

	genres := make([]string, 0, len(r.Genres))
	for _, g := range r.Genres {
		genres = append(genres, g.Name)
	}
	details.Genre = strings.Join(genres, ", ")

	if len(r.ProductionCountries) > 0 {
		details.Country = r.ProductionCountries[0].Name
	}

	if mediaType == "tv" {
		details.Type = "series"
		if r.NumberOfSeasons > 0 {
			details.TotalSeasons = fmt.Sprintf("%d", r.NumberOfSeasons)
		}
		creators := make([]string, 0, len(r.CreatedBy))
		for _, c := range r.CreatedBy {
			creators = append(creators, c.Name)
		}
		details.Director = strings.Join(creators, ", ")
	} else {
		for _, crew := range r.Credits.Crew {
			if crew.Job == "Director" {
				details.Director = crew.Name
				break
			}
		}
	}

	var writers []string
	for _, crew := range r.Credits.Crew {
		if crew.Job == "Screenplay" || crew.Job == "Writer" {
			writers = append(writers, crew.Name)
		}
		if len(writers) == 3 {
			break
		}
	}
	details.Writer = strings.Join(writers, ", ")

	actors := make([]string, 0, 4)
	for _, cast := range r.Credits.Cast {
		actors = append(actors, cast.Name)
		if len(actors) == 4 {
			break
		}
	}
	details.Actors = strings.Join(actors, ", ")

	if r.PosterPath != "" {
		details.Poster = fmt.Sprintf("%s/%s%s", tmdbImageBaseURL, tmdbDetailsSize, r.PosterPath)
	}
	if r.VoteAverage > 0 {
		details.IMDBRating = fmt.Sprintf("%.1f", r.VoteAverage)
	}
	if r.VoteCount > 0 {
		// French digit grouping, "6 421" rather than "6,421"
		details.IMDBVotes = humanize.FormatInteger("# ###.", int(r.VoteCount))
	}

	return details
}

func (t *TMDBClient) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to query TMDB: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("TMDB API returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode TMDB response: %w", err)
	}

	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
