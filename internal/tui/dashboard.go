package tui

import (
	"context"
	"fmt"
	"time"

	"cryptolens/internal/domain"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const fetchTimeout = 20 * time.Second

// MarketReader is the analytics surface the dashboard renders.
type MarketReader interface {
	MarketOverview(ctx context.Context) (*domain.MarketOverview, error)
	ChainTVLRanking(ctx context.Context) (*domain.ChainRanking, error)
}

type CacheStatter interface {
	Stats() domain.CacheStats
}

type Services struct {
	Market   MarketReader
	Cache    CacheStatter
	Username string
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")).Padding(0, 1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	upStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	downStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1)
)

type dashboardData struct {
	overview *domain.MarketOverview
	ranking  *domain.ChainRanking
	stats    domain.CacheStats
}

type dataMsg struct {
	data dashboardData
	err  error
}

// Model is the SSH dashboard. One screen, refresh on demand.
type Model struct {
	svc     Services
	spinner spinner.Model
	chains  table.Model
	data    *dashboardData
	err     error
	loading bool
	width   int
	height  int
}

func NewModel(svc Services) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	tbl := table.New(
		table.WithColumns([]table.Column{
			{Title: "#", Width: 3},
			{Title: "Chain", Width: 18},
			{Title: "TVL", Width: 16},
			{Title: "Token", Width: 8},
		}),
		table.WithHeight(10),
	)

	return Model{
		svc:     svc,
		spinner: sp,
		chains:  tbl,
		loading: true,
	}
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch())
}

func (m Model) fetch() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		overview, err := svc.Market.MarketOverview(ctx)
		if err != nil {
			return dataMsg{err: err}
		}
		ranking, err := svc.Market.ChainTVLRanking(ctx)
		if err != nil {
			return dataMsg{err: err}
		}
		return dataMsg{data: dashboardData{
			overview: overview,
			ranking:  ranking,
			stats:    svc.Cache.Stats(),
		}}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			if !m.loading {
				m.loading = true
				m.err = nil
				return m, tea.Batch(m.spinner.Tick, m.fetch())
			}
		case "up", "down", "j", "k":
			var cmd tea.Cmd
			m.chains, cmd = m.chains.Update(msg)
			return m, cmd
		}

	case dataMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.data = &msg.data
		m.chains.SetRows(chainRows(msg.data.ranking))
		return m, nil

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func chainRows(ranking *domain.ChainRanking) []table.Row {
	rows := make([]table.Row, 0, len(ranking.Chains))
	for i, c := range ranking.Chains {
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", i+1),
			c.Name,
			formatUSD(c.TVL),
			c.TokenSymbol,
		})
	}
	return rows
}

func (m Model) View() string {
	header := titleStyle.Render("CryptoLens")
	if m.svc.Username != "" {
		header += labelStyle.Render("  connected as " + m.svc.Username)
	}

	if m.loading {
		return fmt.Sprintf("%s\n\n %s fetching market data...\n", header, m.spinner.View())
	}
	if m.err != nil {
		return fmt.Sprintf("%s\n\n%s\n%s\n", header,
			errorStyle.Render("error: "+m.err.Error()),
			footerStyle.Render("r refresh · q quit"))
	}
	if m.data == nil {
		return header + "\n"
	}

	o := m.data.overview
	changeStyle := upStyle
	if o.MarketCapChange24hPct < 0 {
		changeStyle = downStyle
	}

	overview := lipgloss.JoinVertical(lipgloss.Left,
		row("Total Market Cap", formatUSD(o.TotalMarketCapUSD)),
		row("24h Change", changeStyle.Render(fmt.Sprintf("%+.2f%%", o.MarketCapChange24hPct))),
		row("BTC Dominance", fmt.Sprintf("%.1f%%", o.BTCDominance)),
		row("DeFi TVL", formatUSD(o.TotalDeFiTVLUSD)),
		row("Fear & Greed", fmt.Sprintf("%d (%s)", o.FearGreed.Value, o.FearGreed.Label)),
		row("Sentiment", o.SentimentDivergence.Signal),
	)

	stats := m.data.stats
	cacheLine := footerStyle.Render(fmt.Sprintf(
		"cache: %d keys, %d fresh, %d stale · r refresh · q quit",
		stats.TotalKeys, stats.Fresh, stats.Stale))

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		overview,
		"",
		titleStyle.Render("Top Chains by TVL"),
		m.chains.View(),
		cacheLine,
	) + "\n"
}

func row(label, value string) string {
	return labelStyle.Width(18).Render(label) + valueStyle.Render(value)
}

func formatUSD(v float64) string {
	switch {
	case v >= 1e12:
		return fmt.Sprintf("$%.2fT", v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("$%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("$%.2fM", v/1e6)
	default:
		return fmt.Sprintf("$%.0f", v)
	}
}
