package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"

	"github.com/dmitrijs2005/bookshelf/internal/common"
	"github.com/dmitrijs2005/bookshelf/internal/filex"
	"github.com/dmitrijs2005/bookshelf/internal/netx"
)

// downloadFn is a test seam for netx.DownloadFromPresignedURL.
var downloadFn = netx.DownloadFromPresignedURL

func (a *App) Purchases(ctx context.Context) error {
	books, err := a.api.Purchases(ctx)
	if err != nil {
		a.report("Could not load purchases", err)
		return err
	}
	if len(books) == 0 {
		fmt.Fprintln(a.out, "No purchases yet")
		return nil
	}
	for _, b := range books {
		mark := ""
		if b.ContentURL != "" {
			mark = " [download]"
		}
		fmt.Fprintf(a.out, "%s  %-12s %-30s x%d %s%s\n",
			b.PurchaseDate.Format("2006-01-02"), b.ItemID, b.Title, b.Quantity, money(b.Price), mark)
	}
	return nil
}

// Download saves the content of a purchased book into the download directory.
func (a *App) Download(ctx context.Context, itemID string) error {
	books, err := a.api.Purchases(ctx)
	if err != nil {
		a.report("Could not load purchases", err)
		return err
	}

	var link string
	for _, b := range books {
		if b.ItemID == itemID && b.ContentURL != "" {
			link = b.ContentURL
			break
		}
	}
	if link == "" {
		fmt.Fprintf(a.out, "Download failed: no downloadable purchase %q\n", itemID)
		return fmt.Errorf("%w: purchase %q", common.ErrNotFound, itemID)
	}

	dir, err := filex.EnsureDir(a.config.DownloadDir)
	if err != nil {
		a.report("Download failed", err)
		return err
	}

	name := filex.SafeName(itemID) + fileExt(link)
	var size int64
	dst, err := filex.WriteFile(dir, name, func(w io.Writer) error {
		n, err := downloadFn(ctx, link, w)
		size = n
		return err
	})
	if err != nil {
		a.report("Download failed", err)
		return err
	}
	fmt.Fprintf(a.out, "Saved %s (%d bytes)\n", dst, size)
	return nil
}

// fileExt guesses the extension from the link path and defaults to .pdf.
func fileExt(link string) string {
	if u, err := url.Parse(link); err == nil {
		if ext := path.Ext(u.Path); ext != "" && len(ext) <= 6 {
			return ext
		}
	}
	return ".pdf"
}
