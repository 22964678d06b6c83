package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yyqs2008/jms-sdk-go/internal/api"
	"github.com/yyqs2008/jms-sdk-go/internal/cache"
	"github.com/yyqs2008/jms-sdk-go/internal/resolve"
)

// newAssetsCmd returns the assets command with subcommands
func newAssetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "assets",
		Aliases: []string{"as"},
		Short:   "List and search granted assets",
	}

	cmd.AddCommand(newAssetsListCmd())
	cmd.AddCommand(newAssetsSearchCmd())

	return cmd
}

// assetsInventory is the combined payload printed by 'assets list'.
type assetsInventory struct {
	Assets []api.Asset      `json:"assets"`
	Groups []api.AssetGroup `json:"groups"`
}

func newUserService() (*api.UserService, error) {
	client, _, err := newClient()
	if err != nil {
		return nil, err
	}
	return &api.UserService{Client: client}, nil
}

// fetchInventory loads the granted assets and asset groups, consulting the
// local cache first unless --no-cache is set.
func fetchInventory(cmd *cobra.Command) (assetsInventory, error) {
	svc, err := newUserService()
	if err != nil {
		return assetsInventory{}, err
	}

	var store *cache.Store
	if !flags.NoCache {
		if dir, err := cache.DefaultDir(); err == nil {
			store = cache.NewStore(dir, "inventory", svc.Endpoint)
			var cached assetsInventory
			if store.Get(&cached) {
				return cached, nil
			}
		}
	}

	var inv assetsInventory
	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		assets, err := svc.MyAssets(ctx)
		if err != nil {
			return err
		}
		inv.Assets = assets
		return nil
	})
	g.Go(func() error {
		groups, err := svc.MyAssetGroups(ctx)
		if err != nil {
			return err
		}
		inv.Groups = groups
		return nil
	})
	if err := g.Wait(); err != nil {
		return assetsInventory{}, err
	}

	if store != nil {
		store.Put(inv)
	}
	return inv, nil
}

// newAssetsListCmd creates the assets list command
func newAssetsListCmd() *cobra.Command {
	var groupID int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List assets and asset groups granted to the credential",
		Example: `  # All granted assets and groups
  jms assets list

  # Hostnames only
  jms assets list --jq '.assets[].hostname'

  # Assets of one group
  jms assets list --group 3`,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("group") {
				svc, err := newUserService()
				if err != nil {
					return err
				}
				assets, err := svc.AssetGroupAssets(cmd.Context(), groupID)
				if err != nil {
					return err
				}
				return printJSON(cmd, assets)
			}

			inv, err := fetchInventory(cmd)
			if err != nil {
				return err
			}
			return printJSON(cmd, inv)
		}),
	}

	cmd.Flags().IntVar(&groupID, "group", 0, "List assets of a single asset group id")

	return cmd
}

// newAssetsSearchCmd creates the assets search command
func newAssetsSearchCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "search <name>",
		Short: "Fuzzy-search granted assets by hostname",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			inv, err := fetchInventory(cmd)
			if err != nil {
				return err
			}

			named := make([]resolve.Named, len(inv.Assets))
			byID := make(map[int]api.Asset, len(inv.Assets))
			for i, asset := range inv.Assets {
				named[i] = resolve.Named{ID: asset.ID, Name: asset.Hostname}
				byID[asset.ID] = asset
			}

			if all {
				matches := resolve.FuzzyMatchAll(args[0], named, 10)
				results := make([]api.Asset, 0, len(matches))
				for _, m := range matches {
					results = append(results, byID[m.ID])
				}
				return printJSON(cmd, results)
			}

			id, err := resolve.FuzzyMatch(args[0], named)
			if err != nil {
				var ambiguous *resolve.AmbiguousError
				if errors.As(err, &ambiguous) {
					return fmt.Errorf("%w (use --all to list candidates)", err)
				}
				return err
			}
			return printJSON(cmd, byID[id])
		}),
	}

	cmd.Flags().BoolVar(&all, "all", false, "Print all fuzzy matches instead of the best one")

	return cmd
}
