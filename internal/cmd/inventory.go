package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/producttrack/producttrack/internal/api"
	pterrors "github.com/producttrack/producttrack/internal/errors"
	"github.com/producttrack/producttrack/internal/guard"
	"github.com/producttrack/producttrack/internal/notify"
	"github.com/producttrack/producttrack/internal/ux"
)

var inventoryCmd = &cobra.Command{
	Use:     "inventory",
	Aliases: []string{"inv"},
	Short:   "List your inventory",
	Long: `List the products in your inventory. Individual accounts see their own
products; business accounts and their team see the company's.

Examples:
  producttrack inventory
  producttrack inventory --category Lácteos
  producttrack inventory --low-stock --format json
  producttrack inventory summary`,
	Args: cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		if err := a.requireSection(guard.SuffixInventory); err != nil {
			return err
		}
		category, _ := cmd.Flags().GetString("category")
		lowOnly, _ := cmd.Flags().GetBool("low-stock")

		products, err := listProducts(cmd, a, category)
		if err != nil {
			return err
		}
		if lowOnly {
			threshold := notify.LowStockThreshold(a.access())
			kept := products[:0]
			for _, p := range products {
				if p.Quantity <= threshold {
					kept = append(kept, p)
				}
			}
			products = kept
		}
		return a.emit(productTable(products))
	}),
}

func listProducts(cmd *cobra.Command, a *app, category string) ([]api.Product, error) {
	s, _ := a.session()
	accountType := string(s.AccountType)
	if category == "" {
		return a.client.ListProducts(cmd.Context(), accountType)
	}
	products, err := a.client.ProductsByCategory(cmd.Context(), category)
	if err != nil {
		return nil, err
	}
	return api.OwnedBy(products, accountType), nil
}

func productTable(products []api.Product) *ux.Table {
	t := &ux.Table{
		Headers: []string{"ID", "Name", "Category", "Qty", "Price", "Expires", "Status"},
		Data:    products,
		Empty:   "No products found.",
	}
	if products == nil {
		t.Data = []api.Product{}
	}
	for _, p := range products {
		expires := "-"
		if d, ok := p.Expiry(); ok {
			expires = d.Format("2006-01-02")
		}
		t.Rows = append(t.Rows, []string{
			idString(p.ID),
			p.Name,
			orDash(p.Category),
			strconv.Itoa(p.Quantity),
			strconv.FormatFloat(p.Price, 'f', 2, 64),
			expires,
			orDash(string(p.Status)),
		})
	}
	return t
}

var inventorySummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Count low-stock, expired and expiring products",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		if err := a.requireSection(guard.SuffixInventory); err != nil {
			return err
		}
		products, err := listProducts(cmd, a, "")
		if err != nil {
			return err
		}
		threshold := notify.LowStockThreshold(a.access())
		sum := api.Summarize(products, threshold, time.Now())
		return a.emit(detail(sum,
			"Products", strconv.Itoa(sum.Total),
			"Units", strconv.Itoa(sum.Units),
			fmt.Sprintf("Low stock (≤ %d)", threshold), strconv.Itoa(sum.LowStock),
			"Expired", strconv.Itoa(sum.Expired),
			"Expiring within 7 days", strconv.Itoa(sum.Expiring),
		))
	}),
}

var inventoryCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List product categories",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		if err := a.requireSection(guard.SuffixInventory); err != nil {
			return err
		}
		s, _ := a.session()
		categories, err := a.client.Categories(cmd.Context(), string(s.AccountType))
		if err != nil {
			return err
		}
		t := &ux.Table{Headers: []string{"Category"}, Data: categories, Empty: "No categories."}
		for _, c := range categories {
			t.Rows = append(t.Rows, []string{c})
		}
		return a.emit(t)
	}),
}

// productDetail is the structured form of 'inventory show'.
type productDetail struct {
	Product  *api.Product  `json:"product" yaml:"product"`
	Comments []api.Comment `json:"comments" yaml:"comments"`
}

var inventoryShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a product and its comments",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		if err := a.requireSection(guard.SuffixInventory); err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		p, err := a.client.GetProduct(cmd.Context(), id)
		if err != nil {
			return err
		}
		comments, err := a.client.Comments(cmd.Context(), id)
		if err != nil {
			return err
		}

		if a.structured() {
			return a.emit(&ux.Table{Data: productDetail{Product: p, Comments: comments}})
		}
		if err := a.emit(detail(p,
			"ID", idString(p.ID),
			"Name", p.Name,
			"Description", p.Description,
			"Category", p.Category,
			"Quantity", strconv.Itoa(p.Quantity),
			"Price", strconv.FormatFloat(p.Price, 'f', 2, 64),
			"Acquired", p.AcquiredOn,
			"Expires", p.ExpiresOn,
			"Status", string(p.Status),
		)); err != nil {
			return err
		}
		t := &ux.Table{Headers: []string{"Date", "Author", "Comment"}, Empty: "No comments."}
		for _, c := range comments {
			t.Rows = append(t.Rows, []string{c.Date(), c.AuthorName(), c.Text})
		}
		return a.emit(t)
	}),
}

var inventoryCommentCmd = &cobra.Command{
	Use:   "comment <id> <text>",
	Short: "Comment on a product",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		if err := a.requireSection(guard.SuffixInventory); err != nil {
			return err
		}
		if !a.access().Comment {
			return pterrors.NewNotAuthorizedError("Commenting", "")
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		s, _ := a.session()
		if _, err := a.client.AddComment(cmd.Context(), s.UserID, id, args[1]); err != nil {
			return err
		}
		a.say("Comment added.")
		return nil
	}),
}

var inventoryDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a product",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		if err := a.requireSection(guard.SuffixInventory); err != nil {
			return err
		}
		if !a.access().ModifyInventory {
			return pterrors.NewNotAuthorizedError("Changing the inventory", "")
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if ok, err := confirm(cmd, a, fmt.Sprintf("Delete product %d?", id)); err != nil || !ok {
			return err
		}
		if err := a.client.DeleteProduct(cmd.Context(), id); err != nil {
			return err
		}
		a.say("Product %d deleted.", id)
		return nil
	}),
}

func init() {
	inventoryCmd.Flags().String("category", "", "only products in this category")
	inventoryCmd.Flags().Bool("low-stock", false, "only products at or below the low-stock threshold")
	inventoryDeleteCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	inventoryCmd.AddCommand(inventorySummaryCmd)
	inventoryCmd.AddCommand(inventoryCategoriesCmd)
	inventoryCmd.AddCommand(inventoryShowCmd)
	inventoryCmd.AddCommand(inventoryCommentCmd)
	inventoryCmd.AddCommand(inventoryDeleteCmd)
	rootCmd.AddCommand(inventoryCmd)
}
