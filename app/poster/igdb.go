package poster

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	igdbDefaultAPIURL = "https://api.igdb.com/v4/games"
	igdbTokenURL      = "https://id.twitch.tv/oauth2/token"
	igdbCoverURLFmt   = "https://images.igdb.com/igdb/image/upload/t_cover_big/%s.jpg"
)

// IGDBClient looks up game cover art on IGDB. The API sits behind Twitch's
// OAuth2 client-credentials flow; the token source caches and refreshes the
// app token on its own.
type IGDBClient struct {
	clientID    string
	apiURL      string
	tokenSource oauth2.TokenSource
	client      *http.Client
}

func NewIGDBClient(clientID, clientSecret string) *IGDBClient {
	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     igdbTokenURL,
	}

	return &IGDBClient{
		clientID:    clientID,
		apiURL:      igdbDefaultAPIURL,
		tokenSource: config.TokenSource(context.Background()),
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type igdbGame struct {
	Name  string `json:"name"`
	Cover struct {
		ImageID string `json:"image_id"`
	} `json:"cover"`
	FirstReleaseDate int64 `json:"first_release_date"`
}

// SearchCover searches IGDB for a game title and returns the cover URL of
// the first result that has one. Empty URL means no match.
func (g *IGDBClient) SearchCover(ctx context.Context, title string) (string, error) {
	token, err := g.tokenSource.Token()
	if err != nil {
		return "", fmt.Errorf("failed to get IGDB token: %w", err)
	}

	query := fmt.Sprintf(`search "%s"; fields name, cover.image_id, first_release_date; limit 10;`,
		strings.ReplaceAll(title, `"`, `\"`))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL, strings.NewReader(query))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Client-ID", g.clientID)
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to query IGDB: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("IGDB API returned status %d", resp.StatusCode)
	}

	var games []igdbGame
	if err := json.NewDecoder(resp.Body).Decode(&games); err != nil {
		return "", fmt.Errorf("failed to decode IGDB response: %w", err)
	}

	for _, game := range games {
		if game.Cover.ImageID != "" {
			return fmt.Sprintf(igdbCoverURLFmt, game.Cover.ImageID), nil
		}
	}

	return "", nil
}
