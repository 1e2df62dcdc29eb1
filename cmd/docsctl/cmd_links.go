package main

import (
	"fmt"

	"ponydocs/application/queries"
	queryhandlers "ponydocs/application/queries/handlers"
	"ponydocs/application/services"
	"ponydocs/domain/core/entities"
	"ponydocs/infrastructure/di"

	"github.com/spf13/cobra"
)

var translateCmd = &cobra.Command{
	Use:   "translate [token]",
	Short: "Translate a wiki link token into its pretty URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd.Context(), func(c *di.Container) error {
			result, err := c.QueryBus.Ask(cmd.Context(), queries.TranslateLinkQuery{
				Token:   args[0],
				Ambient: ambientFromFlags(),
			})
			if err != nil {
				return err
			}
			tr := result.(*queryhandlers.TranslateResult)
			return printResult(tr, func() { fmt.Println(tr.URL) })
		})
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [path]",
	Short: "Show what a request path resolves to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd.Context(), func(c *di.Container) error {
			result, err := c.QueryBus.Ask(cmd.Context(), queries.ResolveRequestQuery{
				Path:    args[0],
				Ambient: ambientFromFlags(),
			})
			if err != nil {
				return err
			}
			res := result.(services.Resolution)
			return printResult(res, func() {
				switch res.Kind {
				case services.ResolutionPage:
					fmt.Printf("page     %s (version %s)\n", res.Title, res.Version)
				case services.ResolutionRedirect:
					fmt.Printf("redirect %s\n", res.Target)
				default:
					fmt.Printf("%-8s %s\n", res.Kind, res.Target)
				}
				if res.Err != nil {
					fmt.Printf("reason   %v\n", res.Err)
				}
			})
		})
	},
}

var navCmd = &cobra.Command{
	Use:   "nav [product] [version]",
	Short: "Print the manual navigation of a product version",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd.Context(), func(c *di.Container) error {
			result, err := c.QueryBus.Ask(cmd.Context(), queries.GetNavigationQuery{
				Product: args[0],
				Version: args[1],
				Ambient: ambientFromFlags(),
			})
			if err != nil {
				return err
			}
			entry := result.(entities.NavCacheEntry)
			return printResult(entry, func() {
				fmt.Printf("%s %s\n", entry.Product, entry.Version)
				for _, m := range entry.Manuals {
					fmt.Printf("  %-20s %s\n", m.LongName, m.FirstURL)
				}
			})
		})
	},
}

var backlinksCmd = &cobra.Command{
	Use:   "backlinks [title or pretty URL]",
	Short: "List the pages linking to a page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd.Context(), func(c *di.Container) error {
			result, err := c.QueryBus.Ask(cmd.Context(), queries.BacklinksQuery{Target: args[0]})
			if err != nil {
				return err
			}
			bl := result.(*queryhandlers.BacklinksResult)
			return printResult(bl, func() {
				for _, e := range bl.Links {
					fmt.Println(e.FromTitle)
				}
			})
		})
	},
}

func ambientFromFlags() queries.Ambient {
	return queries.Ambient{
		Product: ambientProduct,
		Manual:  ambientManual,
		Topic:   ambientTopic,
		Version: ambientVersion,
	}
}
