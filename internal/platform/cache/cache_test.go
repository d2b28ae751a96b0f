package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/harborlend/loancrm/internal/platform/cache"
)

type CacheTestSuite struct {
	suite.Suite
	server *miniredis.Miniredis
	cache  *cache.Cache
	ctx    context.Context
}

func (suite *CacheTestSuite) SetupTest() {
	server, err := miniredis.Run()
	suite.Require().NoError(err)
	suite.server = server

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	suite.cache = cache.NewWithClient(client, time.Minute)
	suite.ctx = context.Background()
}

func (suite *CacheTestSuite) TearDownTest() {
	suite.Require().NoError(suite.cache.Close())
	suite.server.Close()
}

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func (suite *CacheTestSuite) TestSetThenGet() {
	in := payload{Name: "overview", Count: 7}
	suite.Require().NoError(suite.cache.SetJSON(suite.ctx, "dashboard:overview:u1", in))

	var out payload
	suite.True(suite.cache.GetJSON(suite.ctx, "dashboard:overview:u1", &out))
	suite.Equal(in, out)
}

func (suite *CacheTestSuite) TestGetMiss() {
	var out payload
	suite.False(suite.cache.GetJSON(suite.ctx, "dashboard:overview:missing", &out))
}

func (suite *CacheTestSuite) TestEntryExpires() {
	suite.Require().NoError(suite.cache.SetJSON(suite.ctx, "dashboard:analytics:u1", payload{Name: "a"}))

	// miniredis only advances TTLs manually.
	suite.server.FastForward(2 * time.Minute)

	var out payload
	suite.False(suite.cache.GetJSON(suite.ctx, "dashboard:analytics:u1", &out))
}

func (suite *CacheTestSuite) TestInvalidate() {
	suite.Require().NoError(suite.cache.SetJSON(suite.ctx, "k1", payload{Name: "a"}))
	suite.Require().NoError(suite.cache.SetJSON(suite.ctx, "k2", payload{Name: "b"}))

	suite.Require().NoError(suite.cache.Invalidate(suite.ctx, "k1", "k2", "k-missing"))

	var out payload
	suite.False(suite.cache.GetJSON(suite.ctx, "k1", &out))
	suite.False(suite.cache.GetJSON(suite.ctx, "k2", &out))
}

func (suite *CacheTestSuite) TestCorruptEntryReadsAsMiss() {
	suite.Require().NoError(suite.server.Set("dashboard:overview:u1", "{not json"))

	var out payload
	suite.False(suite.cache.GetJSON(suite.ctx, "dashboard:overview:u1", &out))
}

func TestCache(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}

func TestNilCacheIsDisabled(t *testing.T) {
	var c *cache.Cache
	ctx := context.Background()

	var out payload
	require.False(t, c.GetJSON(ctx, "k", &out))
	require.NoError(t, c.SetJSON(ctx, "k", payload{}))
	require.NoError(t, c.Invalidate(ctx, "k"))
	require.NoError(t, c.Close())
}
