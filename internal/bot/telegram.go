package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"cryptolens/internal/analytics"

	tele "gopkg.in/telebot.v3"
)

// StartTelegramBot starts long polling in the background. It is a no-op when
// token is empty.
func StartTelegramBot(token string, a *analytics.Analytics) {
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/overview", func(c tele.Context) error {
		overview, err := a.MarketOverview(context.Background())
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching market overview: %v", err))
		}
		msg := fmt.Sprintf(
			"Market Overview\nTotal Mcap: $%.0f\n24h Change: %.2f%%\nBTC Dominance: %.1f%%\nDeFi TVL: $%.0f\nFear & Greed: %d (%s)",
			overview.TotalMarketCapUSD, overview.MarketCapChange24hPct, overview.BTCDominance,
			overview.TotalDeFiTVLUSD, overview.FearGreed.Value, overview.FearGreed.Label,
		)
		return c.Send(msg)
	})

	b.Handle("/token", func(c tele.Context) error {
		args := c.Args()
		if len(args) == 0 {
			return c.Send("Usage: /token bitcoin")
		}
		coinID := strings.ToLower(args[0])
		analysis, err := a.TokenAnalysis(context.Background(), coinID)
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching %s: %v", coinID, err))
		}
		price := "n/a"
		if analysis.PriceUSD != nil {
			price = fmt.Sprintf("$%.2f", *analysis.PriceUSD)
		}
		msg := fmt.Sprintf(
			"%s (%s)\nPrice: %s\n24h: %.2f%%  7d: %.2f%%\nSignal: %s",
			analysis.Name, analysis.Symbol, price,
			analysis.PriceChange24hPct, analysis.PriceChange7dPct,
			analysis.SentimentDivergence.Signal,
		)
		return c.Send(msg)
	})

	b.Handle("/fng", func(c tele.Context) error {
		trending, err := a.TrendingWithContext(context.Background())
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching sentiment: %v", err))
		}
		msg := fmt.Sprintf(
			"Fear & Greed: %d (%s)\nMarket direction: %s (%.2f%% 24h)",
			trending.FearGreed.Value, trending.FearGreed.Label,
			trending.MarketDirection, trending.MarketCapChange24hPct,
		)
		return c.Send(msg)
	})

	log.Println("Telegram bot started")
	go b.Start()
}
