package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

var (
	statusAddr string
	grpcAddr   string
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "computectl",
		Short: "compute node operator CLI",
	}

	rootCmd.PersistentFlags().StringVar(&statusAddr, "status-addr", "localhost:9180", "status HTTP server address")
	rootCmd.PersistentFlags().StringVar(&grpcAddr, "grpc-addr", "localhost:9090", "gRPC health server address")

	rootCmd.AddCommand(
		statusCmd(),
		healthCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the node's pool and vote accounting",
		Run: func(cmd *cobra.Command, args []string) {
			resp, err := http.Get(fmt.Sprintf("http://%s/status", statusAddr))
			if err != nil {
				log.Fatalf("Failed to fetch status: %v", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				log.Fatalf("Failed to read status response: %v", err)
			}

			var status map[string]interface{}
			if err := json.Unmarshal(body, &status); err != nil {
				log.Fatalf("Failed to parse status response: %v", err)
			}

			printJSON(status)
		},
	}
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the node's gRPC health status",
		Run: func(cmd *cobra.Command, args []string) {
			conn, err := grpc.Dial(grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
			if err != nil {
				log.Fatalf("Failed to connect: %v", err)
			}
			defer conn.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			client := healthpb.NewHealthClient(conn)
			resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
			if err != nil {
				log.Fatalf("Failed to check health: %v", err)
			}

			printJSON(map[string]string{"status": resp.Status.String()})
		},
	}
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal JSON: %v", err)
	}
	fmt.Println(string(data))
}
