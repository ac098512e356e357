// Package tui is a terminal browser for a running feastly API.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"feastly/internal/client"
	"feastly/internal/delivery"
	"feastly/internal/models"
	"feastly/internal/store"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styling
var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#E4572E")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#0a84ff")).
			Padding(0, 1)

	peakStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#ff9f0a")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#ff453a")).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type view int

const (
	viewRestaurants view = iota
	viewSearch
	viewRestaurant
	viewOrders
)

const requestTimeout = 10 * time.Second

// Model is the bubbletea state of the browser
type Model struct {
	client *client.Client

	restaurants list.Model
	menu        table.Model
	orders      table.Model
	search      textinput.Model
	spinner     spinner.Model

	query      client.RestaurantQuery
	pagination store.Pagination
	restaurant *models.Restaurant
	estimate   *delivery.Estimate

	current view
	loading bool
	err     string
}

// restaurantItem adapts a restaurant to list.Item
type restaurantItem struct {
	id    uint
	title string
	desc  string
}

func (i restaurantItem) Title() string       { return i.title }
func (i restaurantItem) Description() string { return i.desc }
func (i restaurantItem) FilterValue() string { return i.title }

// Custom message types for the tea.Model
type restaurantsMsg struct {
	restaurants []models.Restaurant
	pagination  store.Pagination
}

type restaurantMsg struct {
	restaurant *models.Restaurant
	estimate   *delivery.Estimate
}

type ordersMsg struct {
	orders []models.Order
}

type errorMsg struct {
	err string
}

// New creates the browser model. Orders are only reachable when c carries a token.
func New(c *client.Client) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	restaurants := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	restaurants.Title = "Feastly Restaurants"
	restaurants.SetFilteringEnabled(false)

	menu := table.New(
		table.WithColumns([]table.Column{
			{Title: "Dish", Width: 28},
			{Title: "Category", Width: 14},
			{Title: "Price", Width: 8},
		}),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	orders := table.New(
		table.WithColumns([]table.Column{
			{Title: "Order", Width: 8},
			{Title: "Restaurant", Width: 24},
			{Title: "Status", Width: 18},
			{Title: "Total", Width: 9},
			{Title: "Arrives", Width: 8},
		}),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	ti := textinput.New()
	ti.Placeholder = "Search restaurants..."
	ti.CharLimit = 60
	ti.Width = 30

	return Model{
		client:      c,
		restaurants: restaurants,
		menu:        menu,
		orders:      orders,
		search:      ti,
		spinner:     s,
		query:       client.RestaurantQuery{Page: 1, Limit: store.DefaultPageSize},
		current:     viewRestaurants,
		loading:     true,
	}
}

// Run starts the browser on the alternate screen
func Run(c *client.Client) error {
	_, err := tea.NewProgram(New(c), tea.WithAltScreen()).Run()
	return err
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, fetchRestaurants(m.client, m.query))
}

// Update handles UI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.restaurants.SetSize(msg.Width-h, msg.Height-v)
		return m, nil

	case tea.KeyMsg:
		if m.current == viewSearch {
			return m.updateSearch(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "esc":
			if m.current != viewRestaurants {
				m.current = viewRestaurants
				m.err = ""
				return m, nil
			}
		case "enter":
			if m.current == viewRestaurants {
				if selected, ok := m.restaurants.SelectedItem().(restaurantItem); ok {
					m.loading = true
					return m, fetchRestaurant(m.client, selected.id)
				}
			}
		case "s":
			if m.current == viewRestaurants {
				m.current = viewSearch
				m.search.SetValue(m.query.Search)
				m.search.Focus()
				return m, textinput.Blink
			}
		case "n":
			if m.current == viewRestaurants && m.pagination.HasMore {
				m.query.Page++
				m.loading = true
				return m, fetchRestaurants(m.client, m.query)
			}
		case "p":
			if m.current == viewRestaurants && m.query.Page > 1 {
				m.query.Page--
				m.loading = true
				return m, fetchRestaurants(m.client, m.query)
			}
		case "r":
			m.loading = true
			switch m.current {
			case viewRestaurant:
				return m, fetchRestaurant(m.client, m.restaurant.ID)
			case viewOrders:
				return m, fetchOrders(m.client)
			default:
				return m, fetchRestaurants(m.client, m.query)
			}
		case "o":
			if m.current == viewRestaurants {
				if m.client.Token() == "" {
					m.err = "Sign in with --email to see your orders"
					return m, nil
				}
				m.loading = true
				return m, fetchOrders(m.client)
			}
		}

	case restaurantsMsg:
		m.loading = false
		m.err = ""
		m.pagination = msg.pagination
		m.restaurants.SetItems(restaurantItems(msg.restaurants))
		return m, nil

	case restaurantMsg:
		m.loading = false
		m.err = ""
		m.restaurant = msg.restaurant
		m.estimate = msg.estimate
		m.menu.SetRows(menuRows(msg.restaurant.Menu))
		m.current = viewRestaurant
		return m, nil

	case ordersMsg:
		m.loading = false
		m.err = ""
		m.orders.SetRows(orderRows(msg.orders, time.Now()))
		m.current = viewOrders
		return m, nil

	case errorMsg:
		m.loading = false
		m.err = msg.err
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	switch m.current {
	case viewRestaurants:
		m.restaurants, cmd = m.restaurants.Update(msg)
	case viewRestaurant:
		m.menu, cmd = m.menu.Update(msg)
	case viewOrders:
		m.orders, cmd = m.orders.Update(msg)
	}
	return m, cmd
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.search.Blur()
		m.current = viewRestaurants
		return m, nil
	case "enter":
		m.search.Blur()
		m.current = viewRestaurants
		m.query.Search = strings.TrimSpace(m.search.Value())
		m.query.Page = 1
		m.loading = true
		return m, fetchRestaurants(m.client, m.query)
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

// View renders the UI
func (m Model) View() string {
	var b strings.Builder

	switch m.current {
	case viewRestaurants, viewSearch:
		b.WriteString(m.restaurants.View())
		b.WriteString("\n")
		if m.current == viewSearch {
			b.WriteString(m.search.View() + "\n")
		} else if m.query.Search != "" {
			b.WriteString(infoStyle.Render("search: "+m.query.Search) + "\n")
		}
		b.WriteString(helpStyle.Render(fmt.Sprintf("page %d/%d  enter: open  s: search  n/p: page  o: my orders  q: quit",
			m.pagination.CurrentPage, m.pagination.TotalPages)))
	case viewRestaurant:
		b.WriteString(restaurantView(m.restaurant, m.estimate))
		b.WriteString("\n" + m.menu.View() + "\n")
		b.WriteString(helpStyle.Render("r: refresh estimate  esc: back"))
	case viewOrders:
		b.WriteString(titleStyle.Render("My Orders") + "\n\n")
		b.WriteString(m.orders.View() + "\n")
		b.WriteString(helpStyle.Render("r: refresh  esc: back"))
	}

	if m.loading {
		b.WriteString("\n" + m.spinner.View() + " Loading...")
	}
	if m.err != "" {
		b.WriteString("\n" + errorStyle.Render(m.err))
	}
	return docStyle.Render(b.String())
}

func fetchRestaurants(c *client.Client, q client.RestaurantQuery) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		restaurants, pagination, err := c.ListRestaurants(ctx, q)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching restaurants: %v", err)}
		}
		return restaurantsMsg{restaurants: restaurants, pagination: pagination}
	}
}

func fetchRestaurant(c *client.Client, id uint) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		restaurant, err := c.GetRestaurant(ctx, id)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching restaurant: %v", err)}
		}
		estimate, err := c.Estimate(ctx, id)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching estimate: %v", err)}
		}
		return restaurantMsg{restaurant: restaurant, estimate: estimate}
	}
}

func fetchOrders(c *client.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		orders, err := c.MyOrders(ctx)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching orders: %v", err)}
		}
		return ordersMsg{orders: orders}
	}
}

func restaurantItems(restaurants []models.Restaurant) []list.Item {
	items := make([]list.Item, len(restaurants))
	for i, r := range restaurants {
		title := r.Name
		if r.Featured {
			title += " ★"
		}
		items[i] = restaurantItem{
			id:    r.ID,
			title: title,
			desc: fmt.Sprintf("%s - %.1f stars - %d min - $%.2f delivery",
				strings.Join(r.Cuisine, ", "), r.Rating, r.DeliveryTime, r.DeliveryFee),
		}
	}
	return items
}

func menuRows(menu []models.MenuItem) []table.Row {
	rows := make([]table.Row, 0, len(menu))
	for _, item := range menu {
		rows = append(rows, table.Row{item.Name, item.Category, fmt.Sprintf("$%.2f", item.Price)})
	}
	return rows
}

// orderRows lists orders with the minutes left until their estimated arrival
func orderRows(orders []models.Order, now time.Time) []table.Row {
	rows := make([]table.Row, 0, len(orders))
	for _, o := range orders {
		restaurant := fmt.Sprintf("#%d", o.RestaurantID)
		if o.Restaurant != nil {
			restaurant = o.Restaurant.Name
		}

		arrives := "-"
		if o.Status.IsActive() || o.Status == models.OrderStatusOutForDelivery {
			if left := o.EstimatedDeliveryTime.Sub(now); left > 0 {
				arrives = fmt.Sprintf("%d min", int(left.Round(time.Minute).Minutes()))
			} else {
				arrives = "due"
			}
		}

		rows = append(rows, table.Row{
			fmt.Sprintf("#%d", o.ID),
			restaurant,
			string(o.Status),
			fmt.Sprintf("$%.2f", o.Total),
			arrives,
		})
	}
	return rows
}

func restaurantView(r *models.Restaurant, e *delivery.Estimate) string {
	if r == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(r.Name) + "\n\n")
	if r.Description != "" {
		b.WriteString(r.Description + "\n")
	}
	b.WriteString(fmt.Sprintf("Cuisine: %s\n", strings.Join(r.Cuisine, ", ")))
	b.WriteString(fmt.Sprintf("Hours: %s-%s\n", r.OpeningHours.Open, r.OpeningHours.Close))
	b.WriteString(fmt.Sprintf("Minimum order: $%.2f  Delivery fee: $%.2f\n\n", r.MinOrderAmount, r.DeliveryFee))

	if e != nil {
		line := fmt.Sprintf("Delivery in ~%.0f min (%d active orders)", e.Minutes, e.ActiveOrders)
		if e.Peak {
			b.WriteString(peakStyle.Render(line+" - peak hours") + "\n")
		} else {
			b.WriteString(infoStyle.Render(line) + "\n")
		}
	}
	return b.String()
}
