// cmd/seeder/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unclebandit/suno-approvals/internal/auth"
	"github.com/unclebandit/suno-approvals/internal/config"
	"github.com/unclebandit/suno-approvals/internal/db"
	"github.com/unclebandit/suno-approvals/internal/idgen"
	"github.com/unclebandit/suno-approvals/internal/logger"
	"github.com/unclebandit/suno-approvals/internal/model"
	"github.com/unclebandit/suno-approvals/internal/repository"
	"github.com/unclebandit/suno-approvals/internal/service"
)

var (
	cfg *config.Config
	lg  *zap.Logger

	ownerID  int64
	tokenTTL time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "seeder",
	Short: "Database and credential tooling for the approval service",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(); err != nil {
			return err
		}
		lg, err = logger.New(cfg)
		return err
	},
	SilenceUsage: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := db.Open(cmd.Context(), cfg.Database, lg)
		if err != nil {
			return err
		}
		defer database.Close()
		if err := db.Migrate(cmd.Context(), database); err != nil {
			return err
		}
		fmt.Println("Schema applied")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert a demo organization, its clients and a draft campaign",
	Long: `Seed creates:
  - one master client with two active clients and one inactive client
  - a draft campaign owned by --owner with one creative line of three attached pieces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := db.Open(cmd.Context(), cfg.Database, lg)
		if err != nil {
			return err
		}
		defer database.Close()
		if err := db.Migrate(cmd.Context(), database); err != nil {
			return err
		}
		ids, err := idgen.New(cfg.NodeID)
		if err != nil {
			return err
		}

		svc := &service.CampaignService{
			Store:         repository.NewStore(database),
			IDs:           ids,
			Log:           lg,
			PublicBaseURL: cfg.PublicBaseURL,
		}
		res, err := seed(cmd.Context(), svc, ownerID)
		if err != nil {
			return err
		}

		fmt.Printf("Master client: %d\n", res.MasterClient.ID)
		for _, c := range res.Clients {
			fmt.Printf("Client: %d %s (active=%t)\n", c.ID, c.Email, c.Active)
		}
		fmt.Printf("Campaign: %d\n", res.Campaign.ID)
		fmt.Printf("Approval link: %s\n", svc.ApprovalLink(res.Campaign))
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an agency bearer token for --owner",
	RunE: func(cmd *cobra.Command, args []string) error {
		verifier, err := auth.NewVerifier(cfg.Auth.JWTSecret)
		if err != nil {
			return err
		}
		token, err := verifier.Issue(ownerID, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

type seedResult struct {
	MasterClient *model.MasterClient
	Clients      []*model.Client
	Campaign     *model.Campaign
}

func seed(ctx context.Context, svc *service.CampaignService, owner int64) (*seedResult, error) {
	store := svc.Store
	now := time.Now().UTC()

	res := &seedResult{MasterClient: &model.MasterClient{ID: svc.IDs.NextID(), Name: "Acme Beverages"}}
	if err := store.Clients.CreateMasterClient(ctx, res.MasterClient, now); err != nil {
		return nil, err
	}

	for _, c := range []struct {
		name, email string
		active      bool
	}{
		{"Ana Souza", "ana@acme.example", true},
		{"Bruno Lima", "bruno@acme.example", true},
		{"Carla Dias", "carla@acme.example", false},
	} {
		client := &model.Client{ID: svc.IDs.NextID(), MasterClientID: res.MasterClient.ID, Name: c.name, Email: c.email, Active: c.active}
		if err := store.Clients.Create(ctx, client, now); err != nil {
			return nil, err
		}
		res.Clients = append(res.Clients, client)
	}

	campaign, err := svc.CreateCampaign(ctx, owner, res.MasterClient.ID, "Summer launch")
	if err != nil {
		return nil, err
	}
	line, err := svc.CreateCreativeLine(ctx, campaign.ID, owner, "Social media")
	if err != nil {
		return nil, err
	}
	var pieceIDs []int64
	for _, f := range []string{"feed-1080x1080.png", "story-1080x1920.png", "banner-1200x628.png"} {
		p, err := svc.UploadPiece(ctx, line.ID, owner, f)
		if err != nil {
			return nil, err
		}
		pieceIDs = append(pieceIDs, p.ID)
	}
	if _, err := svc.AttachPieces(ctx, campaign.ID, owner, pieceIDs); err != nil {
		return nil, err
	}
	res.Campaign = campaign
	return res, nil
}

func init() {
	seedCmd.Flags().Int64Var(&ownerID, "owner", 1, "agency user ID that owns the seeded campaign")
	tokenCmd.Flags().Int64Var(&ownerID, "owner", 1, "agency user ID placed in the token subject")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(tokenCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
