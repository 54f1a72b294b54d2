package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"classifieds/internal/client/adclient"
	"classifieds/internal/domain"
	"classifieds/internal/listing"

	"github.com/spf13/pflag"
)

var errUsage = errors.New("usage: adctl list|mine|get|create|update|delete [flags]")

type app struct {
	client *adclient.Client
	in     io.Reader
	out    io.Writer
}

func newApp(baseURL string, in io.Reader, out io.Writer, opts ...adclient.Option) *app {
	return &app{client: adclient.New(baseURL, opts...), in: in, out: out}
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "list":
		return a.list(ctx, rest)
	case "mine":
		return a.mine(ctx, rest)
	case "get":
		return a.get(ctx, rest)
	case "create":
		return a.create(ctx, rest)
	case "update":
		return a.update(ctx, rest)
	case "delete":
		return a.delete(ctx, rest)
	}
	return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
}

func (a *app) flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

var categoryAliases = map[string]domain.Category{
	"realestate": domain.CategoryRealEstate,
	"auto":       domain.CategoryAuto,
	"services":   domain.CategoryServices,
}

func parseCategory(s string) (domain.Category, error) {
	if s == "" {
		return "", nil
	}
	if c, ok := categoryAliases[strings.ToLower(s)]; ok {
		return c, nil
	}
	if c := domain.Category(s); c.Valid() {
		return c, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := a.flags("list")
	search := fs.String("search", "", "case-insensitive name substring")
	category := fs.String("category", "", "category: realestate, auto, services or the raw type value")
	subtype := fs.String("service", "", "service subtype")
	priceLimit := fs.Bool("price-limit", false, "apply the price window")
	minPrice := fs.String("min", strconv.Itoa(listing.DefaultMinPrice), "lower price bound, empty for none")
	maxPrice := fs.String("max", strconv.Itoa(listing.DefaultMaxPrice), "upper price bound, empty for none")
	sortOrder := fs.String("sort", "", "newest or oldest")
	page := fs.Int("page", 1, "page number")
	pageSize := fs.Int("page-size", listing.DefaultPageSize, "ads per page")
	if err := fs.Parse(args); err != nil {
		return err
	}

	q := listing.DefaultQuery()
	q.Filter.Search = *search
	q.Filter.ServiceSubtype = *subtype
	q.Filter.PriceLimit = *priceLimit
	q.Page = *page
	q.PageSize = *pageSize

	var err error
	if q.Filter.Category, err = parseCategory(*category); err != nil {
		return err
	}
	if q.Filter.MinPrice, err = listing.ParseBound(*minPrice); err != nil {
		return fmt.Errorf("invalid --min: %w", err)
	}
	if q.Filter.MaxPrice, err = listing.ParseBound(*maxPrice); err != nil {
		return fmt.Errorf("invalid --max: %w", err)
	}
	var ok bool
	if q.Sort, ok = listing.ParseSortOrder(*sortOrder); !ok {
		return fmt.Errorf("invalid --sort %q", *sortOrder)
	}

	ads, err := a.client.List(ctx)
	if err != nil {
		return err
	}

	res := listing.Apply(ads, q)
	if err := a.table(res.Ads); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "page %d of %d, %d of %d ads match\n", res.Page, max(res.TotalPages, 1), res.Matched, res.Total)
	return nil
}

func (a *app) mine(ctx context.Context, args []string) error {
	fs := a.flags("mine")
	user := fs.String("user", "", "owner user id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *user == "" {
		return errors.New("--user is required")
	}

	owned, err := a.client.ListByOwner(ctx, *user)
	if err != nil {
		return err
	}
	if len(owned.Ads) == 0 {
		fmt.Fprintln(a.out, owned.Message)
		return nil
	}
	return a.table(owned.Ads)
}

func idArg(fs *pflag.FlagSet) (int64, error) {
	if fs.NArg() != 1 {
		return 0, errors.New("expected exactly one ad id")
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid ad id %q", fs.Arg(0))
	}
	return id, nil
}

func (a *app) get(ctx context.Context, args []string) error {
	fs := a.flags("get")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := idArg(fs)
	if err != nil {
		return err
	}

	ad, err := a.client.Get(ctx, id)
	if err != nil {
		return err
	}
	return a.printJSON(ad)
}

// readJSON decodes the file named by path, or stdin for "-".
func (a *app) readJSON(path string, v any) error {
	var r io.Reader = a.in
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

func (a *app) create(ctx context.Context, args []string) error {
	fs := a.flags("create")
	file := fs.String("file", "-", "ad JSON file, - for stdin")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var ad domain.Ad
	if err := a.readJSON(*file, &ad); err != nil {
		return err
	}

	created, err := a.client.Create(ctx, &ad)
	if err != nil {
		return err
	}
	return a.printJSON(created)
}

func (a *app) update(ctx context.Context, args []string) error {
	fs := a.flags("update")
	user := fs.String("user", "", "owner user id")
	file := fs.String("file", "-", "patch JSON file, - for stdin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := idArg(fs)
	if err != nil {
		return err
	}

	var patch map[string]any
	if err := a.readJSON(*file, &patch); err != nil {
		return err
	}

	updated, err := a.client.Update(ctx, id, *user, patch)
	if err != nil {
		return err
	}
	return a.printJSON(updated)
}

func (a *app) delete(ctx context.Context, args []string) error {
	fs := a.flags("delete")
	user := fs.String("user", "", "owner user id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := idArg(fs)
	if err != nil {
		return err
	}

	if err := a.client.Delete(ctx, id, *user); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "deleted ad %d\n", id)
	return nil
}

func (a *app) table(ads []*domain.Ad) error {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tPRICE\tLOCATION\tCREATED")
	for _, ad := range ads {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%s\t%s\n",
			ad.ID, ad.Name, ad.Type, ad.Price, ad.Location, ad.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
