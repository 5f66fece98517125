package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"
	"github.com/shopspring/decimal"

	"github.com/idilsaglam/cart/internal/cart"
	"github.com/idilsaglam/cart/internal/model"
	"github.com/idilsaglam/cart/internal/ui"
)

// listItem adapts a cart line to bubbles/list.Item
type listItem struct {
	item model.LineItem
}

func (i listItem) Title() string       { return i.item.Title }
func (i listItem) Description() string { return i.item.ID }
func (i listItem) FilterValue() string { return i.item.Title + " " + i.item.ID }

// loadedMsg arrives once the store finished its initial load.
type loadedMsg struct{}

const (
	fieldTitle = iota
	fieldPrice
)

type Model struct {
	store  *cart.Store
	list   list.Model
	loaded bool

	// Inline add
	adding bool
	title  textinput.Model
	price  textinput.Model
	field  int
	addErr string

	width, height int
}

// titleWidth is the title column in terminal cells.
const titleWidth = 40

// Custom delegate to control how items render (single line)
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	title := runewidth.FillRight(ui.Truncate(it.item.Title, titleWidth), titleWidth)
	qty := qtyStyle(it.item.Quantity).Render(fmt.Sprintf("×%d", it.item.Quantity))
	unit := mutedStyle.Render("@ " + ui.Money(decimal.NewFromFloat(it.item.Price)))
	total := accentStyle.Render(ui.Money(it.item.LineTotal()))
	line := fmt.Sprintf("%s %s  %s  %s", title, qty, unit, total)

	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintln(w, prefix+line)
}

// New builds the screen over s. Nothing is shown until s has loaded.
func New(s *cart.Store) Model {
	l := list.New(nil, itemDelegate{}, 80, 20)
	l.Title = pendingStyle.Render("Loading cart…")
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("line", "lines")

	// Extend help with the cart bindings
	incBind := key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "more"))
	decBind := key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "less"))
	addBind := key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	bindings := func() []key.Binding { return []key.Binding{incBind, decBind, addBind} }
	l.AdditionalShortHelpKeys = bindings
	l.AdditionalFullHelpKeys = bindings

	m := Model{store: s, list: l, width: 80, height: 24}

	m.title = textinput.New()
	m.title.Prompt = "title > "
	m.title.Placeholder = "Product name..."
	m.title.CharLimit = 200

	m.price = textinput.New()
	m.price.Prompt = "price > "
	m.price.Placeholder = "0.00"
	m.price.CharLimit = 16
	return m
}

// Run shows the screen for the store carried by ctx until the user quits or
// ctx is cancelled.
func Run(ctx context.Context) error {
	s, err := cart.FromContext(ctx)
	if err != nil {
		return err
	}
	p := tea.NewProgram(New(s), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil && errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	}
	return nil
}

func (m Model) Init() tea.Cmd {
	loaded := m.store.Loaded()
	return func() tea.Msg {
		<-loaded
		return loadedMsg{}
	}
}

// refresh copies the store's cart into the list and keeps the cursor in place.
func (m *Model) refresh() tea.Cmd {
	items := m.store.Items()
	li := make([]list.Item, 0, len(items))
	for _, it := range items {
		li = append(li, listItem{item: it})
	}
	idx := m.list.Index()
	cmd := m.list.SetItems(li)
	if idx >= len(li) {
		idx = len(li) - 1
	}
	if idx >= 0 {
		m.list.Select(idx)
	}

	m.list.Title = fmt.Sprintf("%s   %s %d  %s %d  %s %s",
		titleStyle.Render("Cart"),
		mutedStyle.Render("lines"), len(items),
		mutedStyle.Render("qty"), model.TotalQuantity(items),
		accentStyle.Render("Subtotal"), ui.Money(model.Subtotal(items)),
	)
	return cmd
}

func (m Model) selected() (listItem, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	return it, ok
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		m.loaded = true
		cmd := m.refresh()
		return m, cmd
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil
	}

	if m.adding {
		return m.updateAdd(msg)
	}

	// while the filter prompt is open every key belongs to it
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "+", "=":
			if it, ok := m.selected(); ok && m.loaded {
				m.store.Increment(it.item.ID)
				cmd := m.refresh()
				return m, cmd
			}
			return m, nil
		case "-":
			if it, ok := m.selected(); ok && m.loaded {
				m.store.Decrement(it.item.ID)
				cmd := m.refresh()
				return m, cmd
			}
			return m, nil
		case "a":
			if !m.loaded {
				return m, nil
			}
			m.adding = true
			m.addErr = ""
			m.field = fieldTitle
			m.title.SetValue("")
			m.price.SetValue("")
			m.price.Blur()
			m.resize()
			cmd := m.title.Focus()
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateAdd(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "esc":
			m.closeAdd()
			return m, nil
		case "tab", "shift+tab":
			cmd := m.switchField()
			return m, cmd
		case "enter":
			if m.field == fieldTitle {
				cmd := m.switchField()
				return m, cmd
			}
			p, err := parseProduct(m.title.Value(), m.price.Value())
			if err != nil {
				m.addErr = err.Error()
				return m, nil
			}
			m.store.AddToCart(p)
			m.closeAdd()
			cmd := m.refresh()
			m.list.Select(len(m.list.Items()) - 1)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	if m.field == fieldTitle {
		m.title, cmd = m.title.Update(msg)
	} else {
		m.price, cmd = m.price.Update(msg)
	}
	return m, cmd
}

func (m *Model) switchField() tea.Cmd {
	if m.field == fieldTitle {
		m.field = fieldPrice
		m.title.Blur()
		return m.price.Focus()
	}
	m.field = fieldTitle
	m.price.Blur()
	return m.title.Focus()
}

func (m *Model) closeAdd() {
	m.adding = false
	m.addErr = ""
	m.title.Blur()
	m.price.Blur()
	m.resize()
}

func (m *Model) resize() {
	h := m.height - 4
	if m.adding {
		h -= 4
	}
	if h < 1 {
		h = 1
	}
	m.list.SetSize(m.width-4, h)
}

// parseProduct validates the add form. The id is a fresh UUID.
func parseProduct(title, price string) (model.Product, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Product{}, errors.New("title cannot be empty")
	}
	d, err := decimal.NewFromString(strings.TrimPrefix(strings.TrimSpace(price), "$"))
	if err != nil || d.IsNegative() {
		return model.Product{}, fmt.Errorf("not a price: %q", price)
	}
	return model.Product{ID: uuid.NewString(), Title: title, Price: d.InexactFloat64()}, nil
}

func (m Model) View() string {
	if !m.loaded {
		return panelString(pendingStyle.Render("Loading cart…"))
	}
	content := m.list.View()
	if m.adding {
		bar := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1)
		heading := "Add to cart"
		if m.addErr != "" {
			heading += "  " + errorStyle.Render(m.addErr)
		}
		content += "\n" + bar.Render(heading+"\n"+m.title.View()+"\n"+m.price.View())
	}
	return panelString(content)
}
