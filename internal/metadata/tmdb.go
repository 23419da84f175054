package metadata

import "github.com/Belphemur/MovieMatch/internal/models"

// Wire shapes of the metadata service. Movies use title/release_date, TV uses name/first_air_date.

type pagedResponse struct {
	Page         int        `json:"page"`
	Results      []tmdbItem `json:"results"`
	TotalPages   int        `json:"total_pages"`
	TotalResults int        `json:"total_results"`
}

type tmdbItem struct {
	ID           models.Identifier `json:"id"`
	MediaType    string            `json:"media_type"`
	Title        string            `json:"title"`
	Name         string            `json:"name"`
	PosterPath   string            `json:"poster_path"`
	BackdropPath string            `json:"backdrop_path"`
	Overview     string            `json:"overview"`
	ReleaseDate  string            `json:"release_date"`
	FirstAirDate string            `json:"first_air_date"`
	VoteAverage  float64           `json:"vote_average"`
}

// summary converts an item; kind is used when the payload does not carry media_type.
// Items whose media_type is neither movie nor tv (people) are rejected.
func (it tmdbItem) summary(kind models.MediaKind) (models.MediaSummary, bool) {
	if it.MediaType != "" {
		kind = models.ParseMediaKind(it.MediaType)
	}
	if !kind.Valid() {
		return models.MediaSummary{}, false
	}

	s := models.MediaSummary{
		ID:           it.ID,
		Kind:         kind,
		PosterPath:   it.PosterPath,
		BackdropPath: it.BackdropPath,
		Overview:     it.Overview,
		VoteAverage:  it.VoteAverage,
	}
	if kind == models.MediaKindTV {
		s.Title = firstNonEmpty(it.Name, it.Title)
		s.ReleaseDate = it.FirstAirDate
	} else {
		s.Title = firstNonEmpty(it.Title, it.Name)
		s.ReleaseDate = it.ReleaseDate
	}
	return s, true
}

func (p pagedResponse) summaries(kind models.MediaKind) []models.MediaSummary {
	out := make([]models.MediaSummary, 0, len(p.Results))
	for _, it := range p.Results {
		if s, ok := it.summary(kind); ok {
			out = append(out, s)
		}
	}
	return out
}

type tmdbDetail struct {
	ID           models.Identifier `json:"id"`
	Title        string            `json:"title"`
	Name         string            `json:"name"`
	Overview     string            `json:"overview"`
	Runtime      *int              `json:"runtime"`
	ReleaseDate  string            `json:"release_date"`
	FirstAirDate string            `json:"first_air_date"`
	Genres       []models.Genre    `json:"genres"`
	PosterPath   string            `json:"poster_path"`
	BackdropPath string            `json:"backdrop_path"`
}

type tmdbCredits struct {
	Cast []struct {
		ID          models.Identifier `json:"id"`
		Name        string            `json:"name"`
		Character   string            `json:"character"`
		ProfilePath string            `json:"profile_path"`
		Order       int               `json:"order"`
	} `json:"cast"`
}

type tmdbVideos struct {
	Results []struct {
		Site string `json:"site"`
		Key  string `json:"key"`
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"results"`
}

// trailer returns the first YouTube video typed "Trailer"
func (v tmdbVideos) trailer() *models.Trailer {
	for _, r := range v.Results {
		if r.Type == "Trailer" && r.Site == "YouTube" {
			return &models.Trailer{Site: r.Site, Key: r.Key, Name: r.Name}
		}
	}
	return nil
}

type tmdbGenres struct {
	Genres []models.Genre `json:"genres"`
}

type tmdbProviderOffer struct {
	ProviderID   int    `json:"provider_id"`
	ProviderName string `json:"provider_name"`
	LogoPath     string `json:"logo_path"`
}

type tmdbProviders struct {
	Results map[string]struct {
		Link     string              `json:"link"`
		Flatrate []tmdbProviderOffer `json:"flatrate"`
		Rent     []tmdbProviderOffer `json:"rent"`
		Buy      []tmdbProviderOffer `json:"buy"`
	} `json:"results"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
