package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const homePage = `<!DOCTYPE html>
<html>
<head>
  <title>CryptoLens</title>
  <style>
    body { font-family: monospace; background: #0d1117; color: #c9d1d9; max-width: 720px; margin: 40px auto; padding: 0 16px; }
    a { color: #58a6ff; }
    code { background: #161b22; padding: 2px 6px; border-radius: 4px; }
  </style>
</head>
<body>
  <h1>CryptoLens</h1>
  <p>Cross-source crypto market intelligence. All data is cached and may lag upstream by a few minutes.</p>
  <ul>
    <li><code>GET /api/prices?ids=bitcoin,ethereum</code> cached spot prices</li>
    <li><code>GET /api/overview</code> market overview with sentiment divergence</li>
    <li><code>GET /api/tokens/:id</code> token deep dive (CoinGecko id)</li>
    <li><code>GET /api/trending</code> trending coins with market context</li>
    <li><code>GET /api/protocols/compare?slugs=aave,lido</code> protocol comparison</li>
    <li><code>GET /api/chains</code> chains ranked by TVL</li>
    <li><code>GET /api/defi</code> DEX volume and stablecoin activity</li>
    <li><code>GET /api/cache/stats</code> cache freshness</li>
  </ul>
  <p>Interactive docs at <a href="/swagger/index.html">/swagger/index.html</a>.</p>
</body>
</html>`

// Home serves a plain HTML index describing the API surface.
func (h *Handler) Home(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(homePage))
}
