package quandl_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pricehistory/internal/provider/quandl"
	"pricehistory/internal/series"
)

const datasetResponse = `{
  "dataset": {
    "dataset_code": "AAPL",
    "database_code": "WIKI",
    "column_names": ["Date","Open","High","Low","Close","Volume","Ex-Dividend","Split Ratio","Adj. Open","Adj. High","Adj. Low","Adj. Close","Adj. Volume"],
    "data": [
      ["2018-01-03",172.53,174.55,171.96,172.23,29461040.0,0.0,1.0,172.53,174.55,171.96,172.23,29461040.0],
      ["2018-01-02",170.16,172.3,169.26,172.26,25555934.0,0.0,1.0,170.16,172.3,169.26,172.26,25555934.0]
    ]
  }
}`

func TestFetch(t *testing.T) {
	t.Parallel()

	// Arrange: a server that checks the dataset path and range
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v3/datasets/WIKI/AAPL.json", r.URL.Path)
		require.Equal(t, "2018-01-01", r.URL.Query().Get("start_date"))
		require.Equal(t, "2018-01-03", r.URL.Query().Get("end_date"))
		require.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		_, _ = w.Write([]byte(datasetResponse))
	}))
	defer srv.Close()
	client := quandl.New("test-key", quandl.WithBaseURL(srv.URL), quandl.WithHTTPClient(srv.Client()))

	// Act
	rows, err := client.Fetch(t.Context(), "AAPL",
		time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2018, 1, 3, 0, 0, 0, 0, time.UTC))

	// Assert
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "2018-01-03", rows[0].Timestamp.Format(series.DateLayout))
	require.Equal(t, "172.23", rows[0].Fields["Adj. Close"])
	require.Equal(t, "172.3", rows[1].Fields["Adj. High"])
	require.NotContains(t, rows[0].Fields, "Date")
}

func TestSource_Load_KeepsProviderRange(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(datasetResponse))
	}))
	defer srv.Close()
	client := quandl.New("", quandl.WithBaseURL(srv.URL), quandl.WithHTTPClient(srv.Client()))
	w, err := series.NewWindow("2018-01-02", "2018-01-03")
	require.NoError(t, err)

	tbl, err := quandl.NewSource(client, nil).Load(t.Context(), "AAPL", w)

	// The start date row is kept: the provider range is inclusive.
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 2)
	require.Equal(t, "2018-01-02", tbl.Rows[0].Timestamp.Format(series.DateLayout))
	require.Equal(t, "170.16", tbl.Rows[0].AdjOpen.String())
}

func TestFetch_QuandlError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"quandl_error":{"code":"QECx02","message":"You have submitted an incorrect Quandl code."}}`))
	}))
	defer srv.Close()
	client := quandl.New("", quandl.WithBaseURL(srv.URL), quandl.WithHTTPClient(srv.Client()))

	rows, err := client.Fetch(t.Context(), "NOPE", time.Time{}, time.Time{})
	require.Nil(t, rows)
	require.ErrorContains(t, err, "QECx02")
}

func TestFetch_ErrUnexpectedStatusCode(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}))
	defer srv.Close()
	client := quandl.New("", quandl.WithBaseURL(srv.URL), quandl.WithHTTPClient(srv.Client()))

	_, err := client.Fetch(t.Context(), "AAPL", time.Time{}, time.Time{})
	require.ErrorContains(t, err, "503")
}
