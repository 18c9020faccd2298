package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const postingHTML = `
<html>
	<head><title>Senior Go Engineer</title><style>body { color: red; }</style></head>
	<body>
		<nav>Jobs | Companies | Privacy Policy</nav>
		<main>
			<h1>Senior Go Engineer</h1>
			<p>Requirements: experience with distributed systems.</p>
			<script>trackVisit();</script>
			<p>Responsibilities: own the billing platform.</p>
		</main>
		<footer>Terms of Service</footer>
	</body>
</html>`

func TestScraperConfig(t *testing.T) {
	s, err := NewWithConfig(ScraperConfig{RateLimit: 1.0, Timeout: 10 * time.Second}, nil)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, s.config.Timeout)
	assert.Equal(t, DefaultSelectors, s.config.Selectors)

	s = New()
	assert.Equal(t, 30*time.Second, s.config.Timeout)
	assert.Equal(t, 2.0, s.config.RateLimit)

	_, err = NewWithConfig(ScraperConfig{RateLimit: -1}, nil)
	assert.Error(t, err)
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://example.com/jobs/42", false},
		{"  http://example.com/jobs  ", false},
		{"ftp://example.com/jobs", true},
		{"example.com/jobs", true},
		{"https://", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			_, err := validateURL(tt.url)
			assert.Equal(t, tt.wantErr, err != nil)
		})
	}
}

func TestCleanContent(t *testing.T) {
	assert.Equal(t, "Apply\nnow", cleanContent("  Apply \n\t now  Accept Cookies"))
	assert.Equal(t, "Requirements\n\nGo experience", cleanContent("\n\nRequirements  \n \n\n\t\nGo   experience\n\n"))
	assert.Equal(t, "", cleanContent(" \n Privacy Policy \n"))
}

func TestFetchKeepsLineStructure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<main>
				<p>Requirements</p>
				<ul>
					<li>experience with distributed systems</li>
					<li>familiarity with   <b>Go</b></li>
				</ul>
				<p>Responsibilities<br>own the billing platform</p>
			</main>
		</body></html>`))
	}))
	defer server.Close()

	doc, err := New().Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t,
		"Requirements\n\n"+
			"experience with distributed systems\n"+
			"familiarity with Go\n\n"+
			"Responsibilities\n"+
			"own the billing platform",
		doc.Content)
}

func TestFetchWithMockServer(t *testing.T) {
	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(postingHTML))
	}))
	defer server.Close()

	var progressed []string
	s, err := NewWithConfig(ScraperConfig{
		RateLimit:  10,
		OnProgress: func(url string) { progressed = append(progressed, url) },
	}, nil)
	require.NoError(t, err)

	doc, err := s.Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, server.URL, doc.URL)
	assert.Equal(t, "Senior Go Engineer", doc.Title)
	assert.NotEmpty(t, doc.ID)
	assert.Contains(t, doc.Content, "Requirements: experience with distributed systems.")
	assert.Contains(t, doc.Content, "Responsibilities: own the billing platform.")
	assert.NotContains(t, doc.Content, "trackVisit")
	assert.NotContains(t, doc.Content, "Jobs | Companies")
	assert.Equal(t, "text/html", doc.Metadata["contentType"])
	assert.Equal(t, "coverletter/1.0", userAgent)
	assert.Equal(t, []string{server.URL}, progressed)
}

func TestFetchFallsBackToBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><div>Familiarity with watercolor painting</div></body></html>`))
	}))
	defer server.Close()

	doc, err := New().Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Familiarity with watercolor painting", doc.Content)
}

func TestFetchErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		default:
			w.Write([]byte(`<html><body>   </body></html>`))
		}
	}))
	defer server.Close()

	s := New()
	_, err := s.Fetch(context.Background(), server.URL+"/missing")
	assert.ErrorContains(t, err, "status code 404")

	_, err = s.Fetch(context.Background(), server.URL+"/blank")
	assert.ErrorContains(t, err, "no text content")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Fetch(ctx, server.URL)
	assert.Error(t, err)
}
