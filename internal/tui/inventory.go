package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/producttrack/producttrack/internal/api"
	"github.com/producttrack/producttrack/internal/notify"
)

type inventoryMode int

const (
	modeList inventoryMode = iota
	modeForm
	modeConfirm
	modeComments
	modeSearch
)

const (
	pName = iota
	pDescription
	pCategory
	pQuantity
	pPrice
	pAcquired
	pExpires
	pStatus
	pBarcode
)

var productStatuses = []string{
	string(api.StatusAvailable),
	string(api.StatusSoldOut),
	string(api.StatusReserved),
	string(api.StatusExpired),
}

type inventoryScreen struct {
	base
	table      table.Model
	products   []api.Product
	visible    []api.Product
	categories []string
	category   int // 0 means all
	query      string

	mode     inventoryMode
	search   textinput.Model
	form     *form
	editing  *api.Product
	deleting *api.Product

	commentsFor *api.Product
	comments    []api.Comment
	comment     textinput.Model
}

func newInventoryScreen(b base) *inventoryScreen {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 5},
			{Title: "Name", Width: 24},
			{Title: "Category", Width: 14},
			{Title: "Qty", Width: 6},
			{Title: "Price", Width: 10},
			{Title: "Expires", Width: 11},
			{Title: "Status", Width: 11},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	ts := table.DefaultStyles()
	ts.Header = ts.Header.BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).Bold(true)
	ts.Selected = ts.Selected.Foreground(lipgloss.Color("230")).Background(lipgloss.Color("63"))
	t.SetStyles(ts)

	search := textinput.New()
	search.Placeholder = "name, category or description"
	search.Prompt = "/ "

	comment := textinput.New()
	comment.Placeholder = "write a comment"
	comment.CharLimit = 500
	comment.Width = 60

	return &inventoryScreen{base: b, table: t, search: search, comment: comment}
}

func (s *inventoryScreen) Init() tea.Cmd {
	return tea.Batch(s.loadProducts(), s.loadCategories())
}

func (s *inventoryScreen) accountType() string {
	if sess := s.env.session(); sess != nil {
		return string(sess.AccountType)
	}
	return ""
}

func (s *inventoryScreen) loadProducts() tea.Cmd {
	client := s.env.API
	accountType := s.accountType()
	if s.category == 0 {
		return s.run("products", func(ctx context.Context) (any, error) {
			return client.ListProducts(ctx, accountType)
		})
	}
	category := s.categories[s.category-1]
	return s.run("products", func(ctx context.Context) (any, error) {
		products, err := client.ProductsByCategory(ctx, category)
		if err != nil {
			return nil, err
		}
		return api.OwnedBy(products, accountType), nil
	})
}

func (s *inventoryScreen) loadCategories() tea.Cmd {
	client := s.env.API
	accountType := strings.ToUpper(s.accountType())
	return s.env.run(s.path, s.id, "categories", func(ctx context.Context) (any, error) {
		return client.Categories(ctx, accountType)
	})
}

func (s *inventoryScreen) Capturing() bool {
	switch s.mode {
	case modeForm, modeSearch, modeConfirm:
		return true
	case modeComments:
		return s.env.authz().Comment
	}
	return false
}

func (s *inventoryScreen) Keys() []key.Binding {
	c := s.env.authz()
	switch s.mode {
	case modeForm:
		return []key.Binding{binding("esc", "cancel")}
	case modeConfirm:
		return []key.Binding{binding("y", "delete"), binding("n", "keep")}
	case modeComments:
		if c.Comment {
			return []key.Binding{binding("enter", "send"), binding("esc", "close")}
		}
		return []key.Binding{binding("esc", "close")}
	case modeSearch:
		return []key.Binding{binding("enter", "apply"), binding("esc", "clear")}
	}

	keys := []key.Binding{binding("/", "search"), binding("f", "category"), binding("c", "comments"), binding("r", "refresh")}
	if c.ModifyInventory {
		keys = append(keys, binding("a", "add"), binding("e", "edit"), binding("d", "delete"))
	}
	return keys
}

func (s *inventoryScreen) selected() *api.Product {
	i := s.table.Cursor()
	if i < 0 || i >= len(s.visible) {
		return nil
	}
	p := s.visible[i]
	return &p
}

func (s *inventoryScreen) refilter() {
	q := strings.ToLower(strings.TrimSpace(s.query))
	s.visible = s.visible[:0]
	for _, p := range s.products {
		if q == "" ||
			strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Category), q) ||
			strings.Contains(strings.ToLower(p.Description), q) {
			s.visible = append(s.visible, p)
		}
	}

	rows := make([]table.Row, 0, len(s.visible))
	for _, p := range s.visible {
		exp, _, _ := strings.Cut(p.ExpiresOn, "T")
		rows = append(rows, table.Row{
			strconv.FormatInt(p.ID, 10),
			p.Name,
			p.Category,
			strconv.Itoa(p.Quantity),
			strconv.FormatFloat(p.Price, 'f', 2, 64),
			exp,
			string(p.Status),
		})
	}
	s.table.SetRows(rows)
	if s.table.Cursor() >= len(rows) {
		s.table.SetCursor(max(0, len(rows)-1))
	}
}

func (s *inventoryScreen) Update(msg tea.Msg) tea.Cmd {
	if r, ok := msg.(resultMsg); ok {
		return s.handleResult(r)
	}
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}

	switch s.mode {
	case modeForm:
		return s.updateForm(km)
	case modeConfirm:
		return s.updateConfirm(km)
	case modeComments:
		return s.updateComments(km)
	case modeSearch:
		return s.updateSearch(km)
	}

	c := s.env.authz()
	switch km.String() {
	case "/":
		s.mode = modeSearch
		s.search.SetValue(s.query)
		return s.search.Focus()
	case "f":
		s.category = (s.category + 1) % (len(s.categories) + 1)
		return s.loadProducts()
	case "r":
		return s.loadProducts()
	case "c":
		if p := s.selected(); p != nil {
			return s.openComments(p)
		}
		return nil
	case "a":
		if c.ModifyInventory {
			s.editing = nil
			s.form = productForm(nil)
			s.mode = modeForm
			return s.form.Focus()
		}
	case "e":
		if p := s.selected(); p != nil && c.ModifyInventory {
			s.editing = p
			s.form = productForm(p)
			s.mode = modeForm
			return s.form.Focus()
		}
	case "d":
		if p := s.selected(); p != nil && c.ModifyInventory {
			s.deleting = p
			s.mode = modeConfirm
		}
		return nil
	}

	var cmd tea.Cmd
	s.table, cmd = s.table.Update(km)
	return cmd
}

func (s *inventoryScreen) updateSearch(km tea.KeyMsg) tea.Cmd {
	switch km.String() {
	case "esc":
		s.query = ""
		s.search.Blur()
		s.mode = modeList
		s.refilter()
		return nil
	case "enter":
		s.search.Blur()
		s.mode = modeList
		return nil
	}
	var cmd tea.Cmd
	s.search, cmd = s.search.Update(km)
	s.query = s.search.Value()
	s.refilter()
	return cmd
}

func (s *inventoryScreen) updateForm(km tea.KeyMsg) tea.Cmd {
	if km.String() == "esc" {
		s.mode = modeList
		s.form = nil
		return nil
	}
	if s.loading {
		return nil
	}
	submitted, cmd := s.form.Update(km)
	if !submitted {
		return cmd
	}

	p := productFromForm(s.form)
	client := s.env.API
	if s.editing != nil {
		id := s.editing.ID
		p.ID = id
		p.UserID = s.editing.UserID
		return s.run("update", func(ctx context.Context) (any, error) {
			if err := client.UpdateProduct(ctx, id, p); err != nil {
				return nil, err
			}
			return client.GetProduct(ctx, id)
		})
	}

	if sess := s.env.session(); sess != nil {
		p.UserID = sess.UserID
	}
	return s.run("create", func(ctx context.Context) (any, error) {
		return client.CreateProduct(ctx, p)
	})
}

func (s *inventoryScreen) updateConfirm(km tea.KeyMsg) tea.Cmd {
	switch km.String() {
	case "y", "enter":
		if s.deleting == nil || s.loading {
			return nil
		}
		id := s.deleting.ID
		client := s.env.API
		return s.run("delete", func(ctx context.Context) (any, error) {
			return id, client.DeleteProduct(ctx, id)
		})
	case "n", "esc":
		s.deleting = nil
		s.mode = modeList
	}
	return nil
}

func (s *inventoryScreen) openComments(p *api.Product) tea.Cmd {
	s.commentsFor = p
	s.comments = nil
	s.mode = modeComments
	s.comment.Reset()
	client := s.env.API
	id := p.ID
	cmds := []tea.Cmd{s.run("comments", func(ctx context.Context) (any, error) {
		return client.Comments(ctx, id)
	})}
	if s.env.authz().Comment {
		cmds = append(cmds, s.comment.Focus())
	}
	return tea.Batch(cmds...)
}

func (s *inventoryScreen) updateComments(km tea.KeyMsg) tea.Cmd {
	switch km.String() {
	case "esc":
		s.comment.Blur()
		s.commentsFor = nil
		s.mode = modeList
		return nil
	case "enter":
		text := strings.TrimSpace(s.comment.Value())
		sess := s.env.session()
		if text == "" || sess == nil || !s.env.authz().Comment || s.loading {
			return nil
		}
		client := s.env.API
		uid, pid := sess.UserID, s.commentsFor.ID
		return s.run("comment", func(ctx context.Context) (any, error) {
			return client.AddComment(ctx, uid, pid, text)
		})
	}
	if !s.env.authz().Comment {
		return nil
	}
	var cmd tea.Cmd
	s.comment, cmd = s.comment.Update(km)
	return cmd
}

func (s *inventoryScreen) handleResult(r resultMsg) tea.Cmd {
	s.loading = false
	if r.err != nil {
		if r.key == "categories" {
			s.env.Logger.WithError(r.err).Warn("failed to load categories")
			return nil
		}
		return failed(r.err)
	}

	switch r.key {
	case "products":
		s.products = r.value.([]api.Product)
		s.refilter()
	case "categories":
		s.categories = r.value.([]string)
		if s.category > len(s.categories) {
			s.category = 0
		}
	case "create":
		created := r.value.(*api.Product)
		s.mode = modeList
		s.form = nil
		return tea.Batch(s.afterCreate(*created), s.loadProducts())
	case "update":
		updated := r.value.(*api.Product)
		for i := range s.products {
			if s.products[i].ID == updated.ID {
				s.products[i] = *updated
			}
		}
		s.refilter()
		s.mode = modeList
		s.form = nil
		s.editing = nil
		return notice(toastSuccess, "Product updated")
	case "delete":
		id := r.value.(int64)
		kept := s.products[:0]
		for _, p := range s.products {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		s.products = kept
		s.refilter()
		s.mode = modeList
		s.deleting = nil
		return notice(toastSuccess, "Product deleted")
	case "comments":
		s.comments = r.value.([]api.Comment)
	case "comment":
		if c := r.value.(*api.Comment); c != nil {
			s.comments = append(s.comments, *c)
		}
		s.comment.Reset()
		if s.env.authz().Business {
			return notice(toastSuccess, "Comment sent and shared with the team")
		}
		return notice(toastSuccess, "Comment added")
	}
	return nil
}

// afterCreate raises the low stock warning and records the restock
// recommendation, each only when the user's preferences allow it.
func (s *inventoryScreen) afterCreate(p api.Product) tea.Cmd {
	e := s.env
	announce := notice(toastSuccess, fmt.Sprintf("Added %s to the inventory", p.Name))
	if p.Quantity <= notify.LowStockThreshold(e.authz()) && notify.CanNotify(e.KV, notify.KindLowStock) {
		announce = notice(toastWarning, fmt.Sprintf("%s is low on stock (%d units)", p.Name, p.Quantity))
	}

	sess := e.session()
	if sess == nil || !notify.CanNotify(e.KV, notify.KindRestock) {
		return announce
	}
	uid := sess.UserID
	restock := func() tea.Msg {
		msg := fmt.Sprintf("Has añadido el producto %s al inventario.", p.Name)
		if err := e.API.SendNotification(e.ctx, uid, notify.TypeRestock, "Producto añadido", msg); err != nil {
			e.Logger.WithError(err).Warn("restock notification failed")
		}
		return nil
	}
	return tea.Batch(announce, restock)
}

func (s *inventoryScreen) View() string {
	st := s.env.styles
	switch s.mode {
	case modeForm:
		title := "New product"
		if s.editing != nil {
			title = "Edit " + s.editing.Name
		}
		return lipgloss.JoinVertical(lipgloss.Left, s.header(), st.Subtitle.Render(title), s.form.View(st))
	case modeConfirm:
		return lipgloss.JoinVertical(lipgloss.Left, s.header(),
			st.Border.Render(fmt.Sprintf("Delete %s? This cannot be undone.\n\n", s.deleting.Name)+
				st.Muted.Render("y: delete · n: keep")))
	case modeComments:
		return lipgloss.JoinVertical(lipgloss.Left, s.header(), s.commentsView())
	}

	category := "all categories"
	if s.category > 0 && s.category <= len(s.categories) {
		category = s.categories[s.category-1]
	}
	filter := st.Muted.Render(fmt.Sprintf("%d products · %s", len(s.visible), category))
	if s.mode == modeSearch {
		filter = s.search.View()
	} else if s.query != "" {
		filter += st.Muted.Render(fmt.Sprintf(" · matching %q", s.query))
	}

	body := s.table.View()
	if len(s.visible) == 0 && !s.loading {
		body = st.Muted.Render("No products yet.")
	}
	return lipgloss.JoinVertical(lipgloss.Left, s.header(), filter, body)
}

func (s *inventoryScreen) commentsView() string {
	st := s.env.styles
	rows := []string{st.Subtitle.Render("Comments on " + s.commentsFor.Name)}
	if len(s.comments) == 0 && !s.loading {
		rows = append(rows, st.Muted.Render("No comments yet."))
	}
	for _, c := range s.comments {
		rows = append(rows, st.Status.Render(c.AuthorName())+" "+st.Muted.Render(c.Date()), "  "+c.Text)
	}
	if s.env.authz().Comment {
		rows = append(rows, "", s.comment.View())
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func productForm(p *api.Product) *form {
	f := newForm("save",
		textField("Name", "", true),
		textField("Description", "", false),
		textField("Category", "", false),
		textField("Quantity", "0", true).withValidator(nonNegativeInt),
		textField("Price", "0.00", true).withValidator(nonNegativeFloat),
		textField("Acquired on", "YYYY-MM-DD", false).withValidator(isoDate),
		textField("Expires on", "YYYY-MM-DD", false).withValidator(isoDate),
		choiceField("Status", productStatuses...),
		textField("Barcode", "", false),
	)
	if p == nil {
		f.SetValue(pAcquired, time.Now().Format("2006-01-02"))
		return f
	}
	f.SetValue(pName, p.Name)
	f.SetValue(pDescription, p.Description)
	f.SetValue(pCategory, p.Category)
	f.SetValue(pQuantity, strconv.Itoa(p.Quantity))
	f.SetValue(pPrice, strconv.FormatFloat(p.Price, 'f', 2, 64))
	acquired, _, _ := strings.Cut(p.AcquiredOn, "T")
	f.SetValue(pAcquired, acquired)
	expires, _, _ := strings.Cut(p.ExpiresOn, "T")
	f.SetValue(pExpires, expires)
	f.SetValue(pStatus, string(p.Status))
	if p.Barcode != nil {
		f.SetValue(pBarcode, *p.Barcode)
	}
	return f
}

// productFromForm reads a validated product form.
func productFromForm(f *form) api.Product {
	qty, _ := strconv.Atoi(f.Value(pQuantity))
	price, _ := strconv.ParseFloat(f.Value(pPrice), 64)
	p := api.Product{
		Name:        f.Value(pName),
		Description: f.Value(pDescription),
		Category:    f.Value(pCategory),
		Quantity:    qty,
		Price:       price,
		AcquiredOn:  f.Value(pAcquired),
		ExpiresOn:   f.Value(pExpires),
		Status:      api.ProductStatus(f.Value(pStatus)),
	}
	if b := f.Value(pBarcode); b != "" {
		p.Barcode = &b
	}
	return p
}

func nonNegativeInt(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fmt.Errorf("must be a whole number, 0 or more")
	}
	return nil
}

func nonNegativeFloat(s string) error {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return fmt.Errorf("must be a number, 0 or more")
	}
	return nil
}

func isoDate(s string) error {
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return fmt.Errorf("use YYYY-MM-DD")
	}
	return nil
}
