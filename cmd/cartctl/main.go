// Package main prints cart summaries fetched from the storefront's CartQuery gRPC service.
//
// Usage: cartctl <account>...
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/abgdnv/stitchnstyle/internal/config"
	grpcImpl "github.com/abgdnv/stitchnstyle/internal/transport/grpc"
	"github.com/abgdnv/stitchnstyle/pkg/bootstrap"
	grpcclient "github.com/abgdnv/stitchnstyle/pkg/client/grpc"
	"github.com/abgdnv/stitchnstyle/pkg/config/configloader"
	"google.golang.org/protobuf/encoding/protojson"
)

const serviceName = "cartctl"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: cartctl <account>...")
		os.Exit(2)
	}
	if err := run(ctx, os.Args[1:]); err != nil {
		log.Printf("cartctl failed: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, accounts []string) error {
	cfg, err := configloader.Load[*config.CartCtl](serviceName)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := bootstrap.NewLogger(cfg.Log.Level)

	conn, err := grpcclient.NewClient("storefront", cfg.Storefront)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()
	client := grpcImpl.NewCartQueryClient(conn)

	marshal := protojson.MarshalOptions{Multiline: true}
	var errs []error
	for _, account := range accounts {
		summary, err := client.GetSummary(ctx, account)
		if err != nil {
			logger.Error("failed to fetch cart summary", slog.String("account", account), slog.Any("error", err))
			errs = append(errs, fmt.Errorf("cart summary of %s: %w", account, err))
			continue
		}
		out, err := marshal.Marshal(summary)
		if err != nil {
			errs = append(errs, fmt.Errorf("encode cart summary of %s: %w", account, err))
			continue
		}
		fmt.Println(string(out))
	}
	return errors.Join(errs...)
}
