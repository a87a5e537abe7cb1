// Command docctl is a small terminal client for the document API. It drives
// the same listing and upload pipelines the service exposes over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"docvault/internal/apiclient"
	"docvault/internal/config"
	"docvault/internal/listing"
	"docvault/internal/service"
	"docvault/internal/uploader"
)

const defaultAddr = "http://localhost:8080"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	addr := os.Getenv("DOCVAULT_ADDR")
	if addr == "" {
		addr = defaultAddr
	}
	client := apiclient.New(addr)
	ctx := context.Background()

	var err error
	switch os.Args[1] {
	case "list":
		err = runList(ctx, client, os.Args[2:])
	case "upload":
		err = runUpload(ctx, client, os.Args[2:])
	case "get":
		err = runGet(ctx, client, os.Args[2:])
	case "status":
		err = runStatus(ctx, client, os.Args[2:])
	case "rm":
		err = runDelete(ctx, client, os.Args[2:])
	case "download":
		err = runDownload(ctx, client, os.Args[2:])
	case "stats":
		err = runStats(ctx, client)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "docctl:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: docctl <command> [flags]

commands:
  list      list documents with filters and pagination
  upload    upload one or more files
  get       show one document
  status    change a document's workflow status
  rm        delete a document
  download  print a presigned download link
  stats     show the dashboard summary

Set DOCVAULT_ADDR to point at the API (default http://localhost:8080).`)
}

func runList(ctx context.Context, client *apiclient.Client, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	status := fs.String("status", "", "filter by workflow status")
	docType := fs.String("type", "", "filter by type code")
	category := fs.String("category", "", "filter by category")
	query := fs.String("query", "", "search in title and description")
	page := fs.Int("page", 1, "page number")
	limit := fs.Int("limit", 10, "page size")
	fs.Parse(args)

	ctl := listing.NewController(client, *limit)
	ctl.UpdateFilters(listing.FilterUpdate{
		Status:   status,
		Type:     docType,
		Category: category,
		Query:    query,
	})
	if *page > 1 {
		ctl.ChangePage(*page)
	}
	if err := ctl.Sync(ctx); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tTYPE\tCATEGORY\tSTATUS\tCREATED")
	for _, d := range ctl.Documents() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			d.ID, d.Title, d.Type, d.Category, d.Status, d.CreatedAt.Format(time.RFC3339))
	}
	w.Flush()

	p := ctl.Pagination()
	fmt.Printf("page %d/%d, %d documents\n", p.Page, p.TotalPages, p.Total)
	return nil
}

func runUpload(ctx context.Context, client *apiclient.Client, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	title := fs.String("title", "", "document title (defaults to filename)")
	category := fs.String("category", "", "document category")
	description := fs.String("description", "", "document description")
	project := fs.String("project", "", "project name")
	parallel := fs.Int("parallel", 1, "number of concurrent uploads")
	fs.Parse(args)

	paths := fs.Args()
	if len(paths) == 0 {
		return fmt.Errorf("upload: at least one file is required")
	}

	meta := service.UploadMeta{
		Title:       *title,
		Category:    *category,
		Description: *description,
	}
	if *project != "" {
		meta.Project = project
	}

	cfg := config.Load()
	queue := uploader.New(client, cfg.Upload,
		uploader.WithConcurrency(*parallel),
		uploader.WithOnComplete(func(out uploader.Outcome) {
			fmt.Printf("done: %d uploaded, %d failed, %d rejected\n",
				out.Uploaded, out.Failed, out.Rejected)
		}),
	)

	var files []uploader.File
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		p := path
		files = append(files, uploader.File{
			Name: info.Name(),
			Size: info.Size(),
			Open: func() (io.ReadCloser, error) { return os.Open(p) },
			Meta: meta,
		})
	}

	for _, it := range queue.Add(files...) {
		if it.Status == uploader.StatusError {
			fmt.Fprintf(os.Stderr, "rejected %s: %s\n", it.Name, it.Reason)
		}
	}

	out, err := queue.Run(ctx)
	if err != nil {
		return err
	}
	if out.Failed > 0 {
		return fmt.Errorf("upload: %d file(s) failed", out.Failed)
	}
	return nil
}

func runGet(ctx context.Context, client *apiclient.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("get: exactly one document id is required")
	}
	doc, err := client.GetDocument(ctx, args[0])
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "id\t%s\n", doc.ID)
	fmt.Fprintf(w, "title\t%s\n", doc.Title)
	fmt.Fprintf(w, "type\t%s\n", doc.Type)
	fmt.Fprintf(w, "category\t%s\n", doc.Category)
	fmt.Fprintf(w, "status\t%s\n", doc.Status)
	fmt.Fprintf(w, "size\t%d\n", doc.Size)
	if doc.Project != nil {
		fmt.Fprintf(w, "project\t%s\n", *doc.Project)
	}
	fmt.Fprintf(w, "created\t%s\n", doc.CreatedAt.Format(time.RFC3339))
	if doc.Description != "" {
		fmt.Fprintf(w, "description\t%s\n", doc.Description)
	}
	return w.Flush()
}

func runStatus(ctx context.Context, client *apiclient.Client, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("status: usage: docctl status <id> <pending|pending-ocr|analysed|high-risk>")
	}
	doc, err := client.UpdateDocument(ctx, args[0], apiclient.DocumentUpdate{Status: &args[1]})
	if err != nil {
		return err
	}
	fmt.Printf("%s is now %s\n", doc.ID, doc.Status)
	return nil
}

func runDelete(ctx context.Context, client *apiclient.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("rm: exactly one document id is required")
	}
	if err := client.DeleteDocument(ctx, args[0]); err != nil {
		return err
	}
	fmt.Println("deleted", args[0])
	return nil
}

func runDownload(ctx context.Context, client *apiclient.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("download: exactly one document id is required")
	}
	url, err := client.DownloadURL(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Println(url)
	return nil
}

func runStats(ctx context.Context, client *apiclient.Client) error {
	stats, err := client.DashboardStats(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "total documents\t%d\n", stats.TotalDocuments)
	fmt.Fprintf(w, "analysed\t%d\n", stats.AnalysedDocuments)
	fmt.Fprintf(w, "high risk\t%d\n", stats.HighRiskDocuments)
	fmt.Fprintf(w, "pending\t%d\n", stats.PendingDocuments)
	fmt.Fprintf(w, "storage used\t%s\n", stats.StorageUsed)
	w.Flush()

	if len(stats.RecentDocuments) > 0 {
		fmt.Println("\nrecent:")
		for _, d := range stats.RecentDocuments {
			fmt.Printf("  %s  %s (%s, %s)\n", d.Time, d.Title, d.Type, d.Status)
		}
	}
	return nil
}
