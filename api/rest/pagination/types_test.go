package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultParams(t *testing.T) {
	assert.Equal(t, Params{Limit: 20, Offset: 0}, DefaultParams(0, -5, 20, 100))
	assert.Equal(t, Params{Limit: 100, Offset: 40}, DefaultParams(500, 40, 20, 100))
	assert.Equal(t, Params{Limit: 1, Offset: 3}, DefaultParams(1, 3, 20, 100))
}

func queryContext(target string) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)

	return c
}

func TestFromQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	params, err := FromQuery(queryContext("/history?limit=250&offset=20"), 20, 100)
	require.NoError(t, err)
	assert.Equal(t, Params{Limit: 100, Offset: 20}, params)

	params, err = FromQuery(queryContext("/history"), 20, 100)
	require.NoError(t, err)
	assert.Equal(t, Params{Limit: 20, Offset: 0}, params)

	_, err = FromQuery(queryContext("/history?limit=ten"), 20, 100)
	assert.ErrorContains(t, err, "limit")

	_, err = FromQuery(queryContext("/history?offset=x"), 20, 100)
	assert.ErrorContains(t, err, "offset")
}
