package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/bookshelf/internal/client/api"
)

func (a *App) ShowCart(ctx context.Context) error {
	cart, err := a.api.Cart(ctx)
	if err != nil {
		a.report("Could not load cart", err)
		return err
	}
	if len(cart.Items) == 0 {
		fmt.Fprintln(a.out, "Cart is empty")
		return nil
	}
	for _, it := range cart.Items {
		fmt.Fprintf(a.out, "%-12s %-30s %3d x %9s = %s\n", it.ID, it.Title, it.Quantity, money(it.Price), money(it.Subtotal))
	}
	fmt.Fprintf(a.out, "Total: %s\n", money(cart.Total))
	return nil
}

// Add asks for the book details and puts one copy into the cart. Adding a
// book that is already there bumps its quantity.
func (a *App) Add(ctx context.Context) error {
	var b api.Book
	var err error

	if b.ID, err = getSimpleText(a.reader, "Book id", a.out); err != nil {
		return err
	}
	if b.Title, err = getSimpleText(a.reader, "Title", a.out); err != nil {
		return err
	}
	if b.Author, err = getSimpleText(a.reader, "Author (optional)", a.out); err != nil {
		return err
	}
	if b.Price, err = getPrice(a.reader, "Price", a.out); err != nil {
		fmt.Fprintln(a.out, err)
		return err
	}
	if b.PDFURL, err = getSimpleText(a.reader, "Content link or object key (optional)", a.out); err != nil {
		return err
	}

	status, err := a.api.AddToCart(ctx, b)
	if err != nil {
		a.report("Could not add book", err)
		return err
	}
	if status == "updated" {
		fmt.Fprintln(a.out, "Quantity increased")
	} else {
		fmt.Fprintln(a.out, "Added to cart")
	}
	return nil
}

func (a *App) Remove(ctx context.Context, itemID string) error {
	if err := a.api.RemoveFromCart(ctx, itemID); err != nil {
		a.report("Could not remove "+itemID, err)
		return err
	}
	fmt.Fprintln(a.out, "Removed", itemID)
	return nil
}

func (a *App) Clear(ctx context.Context) error {
	n, err := a.api.ClearCart(ctx)
	if err != nil {
		a.report("Could not clear cart", err)
		return err
	}
	fmt.Fprintf(a.out, "Removed %d item(s)\n", n)
	return nil
}

func (a *App) Checkout(ctx context.Context) error {
	res, err := a.api.Checkout(ctx)
	if err != nil {
		a.report("Checkout failed", err)
		return err
	}
	fmt.Fprintf(a.out, "Purchased %d item(s) for %s (order %s)\n", res.ItemsProcessed, money(res.Total), res.CheckoutID)
	return nil
}
