package tushare_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"pricehistory/internal/provider/mocks"
	"pricehistory/internal/provider/tushare"
	"pricehistory/internal/series"
)

const dailyResponse = `{
  "code": 0,
  "msg": "",
  "data": {
    "fields": ["ts_code","trade_date","open","high","low","close","pre_close","change","pct_chg","vol","amount"],
    "items": [
      ["600000.SH","20200106",12.30,12.45,12.20,12.35,12.31,0.04,0.325,445612.13,549878.55],
      ["600000.SH","20200103",12.40,12.50,12.28,12.31,12.47,-0.16,-1.283,395437.11,487221.32],
      ["600000.SH","20200102",12.47,12.64,12.45,12.47,12.38,0.09,0.727,521021.61,652301.69]
    ]
  }
}`

func jsonResponse(body string) *http.Response {
	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(body))}
}

func TestFetch(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock HTTP client
	ctrl := gomock.NewController(t)
	httpClient := mocks.NewMockHTTPClient(ctrl)

	// Assert: the request body carries the token, api name and range
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, http.MethodPost, req.Method)
			var body map[string]any
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			require.Equal(t, "daily", body["api_name"])
			require.Equal(t, "test-token", body["token"])
			params := body["params"].(map[string]any)
			require.Equal(t, "600000.SH", params["ts_code"])
			require.Equal(t, "20200101", params["start_date"])
			require.Equal(t, "20200106", params["end_date"])
			return jsonResponse(dailyResponse), nil
		}).
		Times(1)

	client := tushare.New("test-token", tushare.WithHTTPClient(httpClient), tushare.WithBaseURL("http://tushare.test"))

	// Act
	rows, err := client.Fetch(t.Context(), "600000",
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC))

	// Assert: dates parsed, number text preserved, trade_date not a field
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "2020-01-06", rows[0].Timestamp.Format(series.DateLayout))
	require.Equal(t, "12.35", rows[0].Fields["close"])
	require.Equal(t, "-1.283", rows[1].Fields["pct_chg"])
	require.NotContains(t, rows[0].Fields, "trade_date")
}

func TestSource_NormalizesAndExcludesStart(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := mocks.NewMockHTTPClient(ctrl)
	httpClient.EXPECT().Do(gomock.Any()).Return(jsonResponse(dailyResponse), nil).Times(1)

	src := tushare.NewSource(tushare.New("t", tushare.WithHTTPClient(httpClient)), nil)
	w, err := series.NewWindow("2020-01-02", "2020-01-06")
	require.NoError(t, err)

	tbl, err := src.Load(t.Context(), "600000", w)
	require.NoError(t, err)

	// 2020-01-02 is the start date and is excluded.
	require.Len(t, tbl.Rows, 2)
	require.Equal(t, "2020-01-03", tbl.Rows[0].Timestamp.Format(series.DateLayout))
	require.Equal(t, "2020-01-06", tbl.Rows[1].Timestamp.Format(series.DateLayout))
	require.Equal(t, "600000", tbl.Rows[0].ID)
	require.Equal(t, "12.31", tbl.Rows[0].AdjClose.String())
	require.Equal(t, "12.4", tbl.Rows[0].AdjOpen.String())
}

func TestFetch_ErrorCode(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := mocks.NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(jsonResponse(`{"code":40101,"msg":"invalid token","data":null}`), nil).
		Times(1)

	rows, err := tushare.New("bad", tushare.WithHTTPClient(httpClient)).Fetch(t.Context(), "000001", time.Time{}, time.Time{})
	require.Error(t, err)
	require.Nil(t, rows)
	require.Contains(t, err.Error(), "invalid token")
}

func TestFetch_ErrPerformingRequest(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := mocks.NewMockHTTPClient(ctrl)
	httpClient.EXPECT().Do(gomock.Any()).Return(nil, errors.New("dial tcp: refused")).Times(1)

	_, err := tushare.New("t", tushare.WithHTTPClient(httpClient)).Fetch(t.Context(), "000001", time.Time{}, time.Time{})
	require.ErrorContains(t, err, "performing request")
}

func TestFetch_ErrUnexpectedStatusCode(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := mocks.NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(&http.Response{StatusCode: http.StatusBadGateway, Body: io.NopCloser(strings.NewReader("bad gateway"))}, nil).
		Times(1)

	_, err := tushare.New("t", tushare.WithHTTPClient(httpClient)).Fetch(t.Context(), "000001", time.Time{}, time.Time{})
	require.ErrorContains(t, err, "502")
}

func TestStockBasics(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := mocks.NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			var body map[string]any
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			require.Equal(t, "stock_basic", body["api_name"])
			return jsonResponse(`{"code":0,"msg":"","data":{"fields":["ts_code","name","industry"],"items":[["000001.SZ","平安银行","银行"],["600000.SH","浦发银行",null]]}}`), nil
		}).
		Times(1)

	f, err := tushare.New("t", tushare.WithHTTPClient(httpClient)).StockBasics(t.Context())
	require.NoError(t, err)

	records := f.Records()
	require.Equal(t, []string{"ts_code", "name", "industry"}, records[0])
	require.Equal(t, []string{"600000.SH", "浦发银行", ""}, records[2])
}

func TestTSCode(t *testing.T) {
	t.Parallel()

	require.Equal(t, "600000.SH", tushare.TSCode("600000"))
	require.Equal(t, "000001.SZ", tushare.TSCode("000001"))
	require.Equal(t, "300750.SZ", tushare.TSCode("300750"))
	require.Equal(t, "830799.BJ", tushare.TSCode("830799"))
	require.Equal(t, "920001.BJ", tushare.TSCode("920001"))
	require.Equal(t, "900901.SH", tushare.TSCode("900901"))
	require.Equal(t, "510300.SH", tushare.TSCode("510300"))
	require.Equal(t, "159915.SZ", tushare.TSCode("159915"))
	require.Equal(t, "60000", tushare.TSCode("60000"))
	require.Equal(t, "000001.SZ", tushare.TSCode("000001.SZ"))
}
