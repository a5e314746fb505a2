package server

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type progressJSON struct {
	Total   int64 `json:"total"`
	Rated   int64 `json:"rated"`
	HasUser bool  `json:"has_user"`
}

type projectJSON struct {
	Identifier string `json:"identifier"`
	Categories []struct {
		Identifier string       `json:"identifier"`
		Progress   progressJSON `json:"progress"`
	} `json:"categories"`
}

type termJSON struct {
	Identifier string `json:"identifier"`
	URL        string `json:"url"`
	HasUnrated *bool  `json:"has_unrated"`
}

type suggestionJSON struct {
	ID            uint  `json:"id"`
	Score         int64 `json:"score"`
	NegativeScore int64 `json:"negative_score"`
	MyVote        *int  `json:"my_vote"`
}

type termPageJSON struct {
	Term struct {
		Identifier string `json:"identifier"`
	} `json:"term"`
	Path        string           `json:"path"`
	URL         string           `json:"url"`
	Prev        *termJSON        `json:"prev"`
	Next        *termJSON        `json:"next"`
	Suggestions []suggestionJSON `json:"suggestions"`
	Outlinks    []struct {
		Label string `json:"label"`
		URL   string `json:"url"`
	} `json:"outlinks"`
	Icon *struct {
		URL string `json:"url"`
	} `json:"icon"`
	HasUnrated *bool `json:"has_unrated"`
}

func categoryIdentifiers(p projectJSON) []string {
	out := make([]string, 0, len(p.Categories))
	for _, c := range p.Categories {
		out = append(out, c.Identifier)
	}
	return out
}

func TestGetProjects_HiddenCategoriesOnlyForAdmins(t *testing.T) {
	e := newTestEnv(t)
	f := e.seed()

	status, raw := e.do(http.MethodGet, "/api/projects", nil, "")
	require.Equal(t, http.StatusOK, status)
	projects := decode[[]projectJSON](t, raw)
	require.Len(t, projects, 1)
	assert.Equal(t, "ff", projects[0].Identifier)
	assert.Equal(t, []string{"weapons"}, categoryIdentifiers(projects[0]))
	assert.False(t, projects[0].Categories[0].Progress.HasUser)

	status, raw = e.do(http.MethodGet, "/api/projects", nil, f.adminTok)
	require.Equal(t, http.StatusOK, status)
	projects = decode[[]projectJSON](t, raw)
	assert.Equal(t, []string{"weapons", "secret"}, categoryIdentifiers(projects[0]))
}

func TestGetProjects_Progress(t *testing.T) {
	e := newTestEnv(t)
	f := e.seed()

	sug := e.approve(f, f.sword, f.bobTok, "Excalibur")

	status, raw := e.do(http.MethodGet, "/api/projects", nil, f.aliceTok)
	require.Equal(t, http.StatusOK, status)
	progress := decode[[]projectJSON](t, raw)[0].Categories[0].Progress
	assert.Equal(t, progressJSON{Total: 1, Rated: 0, HasUser: true}, progress)

	status, _ = e.do(http.MethodPut, fmt.Sprintf("/api/suggestions/%d/vote", sug), fiber.Map{"vote": 1}, f.aliceTok)
	require.Equal(t, http.StatusOK, status)

	_, raw = e.do(http.MethodGet, "/api/projects", nil, f.aliceTok)
	progress = decode[[]projectJSON](t, raw)[0].Categories[0].Progress
	assert.Equal(t, progressJSON{Total: 1, Rated: 1, HasUser: true}, progress)
}

func TestGetCategory(t *testing.T) {
	e := newTestEnv(t)
	f := e.seed()

	status, raw := e.do(http.MethodGet, "/api/projects/ff/weapons", nil, "")
	require.Equal(t, http.StatusOK, status)
	body := decode[struct {
		Terms []termJSON `json:"terms"`
	}](t, raw)
	require.Len(t, body.Terms, 2)
	assert.Equal(t, "dagger", body.Terms[0].Identifier)
	assert.Equal(t, "sword", body.Terms[1].Identifier)
	assert.Equal(t, "/ff/weapons/sword/", body.Terms[1].URL)
	assert.Nil(t, body.Terms[1].HasUnrated)

	status, raw = e.do(http.MethodGet, "/api/projects/ff/weapons", nil, f.adminTok)
	require.Equal(t, http.StatusOK, status)
	body = decode[struct {
		Terms []termJSON `json:"terms"`
	}](t, raw)
	assert.Len(t, body.Terms, 3)
	require.NotNil(t, body.Terms[0].HasUnrated)
	assert.False(t, *body.Terms[0].HasUnrated)
}

func TestGetCategory_NotFound(t *testing.T) {
	e := newTestEnv(t)
	f := e.seed()

	tests := []struct {
		name  string
		path  string
		token string
		want  int
	}{
		{"unknown project", "/api/projects/nope/weapons", "", http.StatusNotFound},
		{"unknown category", "/api/projects/ff/nope", "", http.StatusNotFound},
		{"hidden category for readers", "/api/projects/ff/secret", f.aliceTok, http.StatusNotFound},
		{"hidden category for admins", "/api/projects/ff/secret", f.adminTok, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, raw := e.do(http.MethodGet, tt.path, nil, tt.token)
			assert.Equal(t, tt.want, status, string(raw))
		})
	}
}

func TestGetTerm(t *testing.T) {
	e := newTestEnv(t)
	f := e.seed()

	first := e.approve(f, f.sword, f.aliceTok, "Excalibur")
	second := e.approve(f, f.sword, f.bobTok, "Masamune")

	status, _ := e.do(http.MethodPut, fmt.Sprintf("/api/suggestions/%d/vote", first), fiber.Map{"vote": 1}, f.bobTok)
	require.Equal(t, http.StatusOK, status)
	status, _ = e.do(http.MethodPut, fmt.Sprintf("/api/suggestions/%d/vote", second), fiber.Map{"vote": -1}, f.aliceTok)
	require.Equal(t, http.StatusOK, status)

	status, raw := e.do(http.MethodGet, "/api/projects/ff/weapons/sword", nil, "")
	require.Equal(t, http.StatusOK, status, string(raw))
	page := decode[termPageJSON](t, raw)

	assert.Equal(t, "sword", page.Term.Identifier)
	assert.Equal(t, "ff/weapons/sword", page.Path)
	assert.Equal(t, "/ff/weapons/sword/", page.URL)

	require.Len(t, page.Suggestions, 2)
	assert.Equal(t, first, page.Suggestions[0].ID)
	assert.Equal(t, int64(1), page.Suggestions[0].Score)
	assert.Equal(t, int64(0), page.Suggestions[0].NegativeScore)
	assert.Equal(t, second, page.Suggestions[1].ID)
	assert.Equal(t, int64(-1), page.Suggestions[1].Score)
	assert.Equal(t, int64(1), page.Suggestions[1].NegativeScore)
	assert.Nil(t, page.Suggestions[0].MyVote)

	require.Len(t, page.Outlinks, 1)
	assert.Equal(t, "Wiki", page.Outlinks[0].Label)
	assert.Equal(t, "https://wiki.example/Magic Sword", page.Outlinks[0].URL)
	require.NotNil(t, page.Icon)
	assert.Equal(t, "https://img.example/3.png", page.Icon.URL)

	require.NotNil(t, page.Prev)
	assert.Equal(t, "dagger", page.Prev.Identifier, "readers skip the hidden neighbour")
	assert.Nil(t, page.Next)
	assert.Nil(t, page.HasUnrated)
}

func TestGetTerm_PersonalisedForReader(t *testing.T) {
	e := newTestEnv(t)
	f := e.seed()

	first := e.approve(f, f.sword, f.aliceTok, "Excalibur")
	e.approve(f, f.sword, f.bobTok, "Masamune")

	status, _ := e.do(http.MethodPut, fmt.Sprintf("/api/suggestions/%d/vote", first), fiber.Map{"vote": 1}, f.bobTok)
	require.Equal(t, http.StatusOK, status)

	_, raw := e.do(http.MethodGet, "/api/projects/ff/weapons/sword", nil, f.bobTok)
	page := decode[termPageJSON](t, raw)
	require.NotNil(t, page.HasUnrated)
	assert.True(t, *page.HasUnrated)
	require.NotNil(t, page.Suggestions[0].MyVote)
	assert.Equal(t, 1, *page.Suggestions[0].MyVote)
	assert.Nil(t, page.Suggestions[1].MyVote)

	_, raw = e.do(http.MethodGet, "/api/projects/ff/weapons/sword", nil, f.adminTok)
	page = decode[termPageJSON](t, raw)
	require.NotNil(t, page.Prev)
	assert.Equal(t, "unseen", page.Prev.Identifier)
}

func TestGetTerm_HiddenTerm(t *testing.T) {
	e := newTestEnv(t)
	f := e.seed()

	status, _ := e.do(http.MethodGet, "/api/projects/ff/weapons/unseen", nil, f.aliceTok)
	assert.Equal(t, http.StatusNotFound, status)

	status, raw := e.do(http.MethodGet, "/api/projects/ff/weapons/unseen", nil, f.adminTok)
	require.Equal(t, http.StatusOK, status, string(raw))
	page := decode[termPageJSON](t, raw)
	require.NotNil(t, page.Prev)
	assert.Equal(t, "dagger", page.Prev.Identifier)
	require.NotNil(t, page.Next)
	assert.Equal(t, "sword", page.Next.Identifier)
}
