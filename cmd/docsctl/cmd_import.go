package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ponydocs/application/commands"
	"ponydocs/domain/core/valueobjects"
	"ponydocs/infrastructure/di"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var dryRun bool

var importCmd = &cobra.Command{
	Use:   "import [directory]",
	Short: "Save every .wiki file of a directory as a page",
	Long: `Each file is saved under its base name without the .wiki extension,
so Documentation:Acme:Guide:Intro:1.0.wiki becomes that page. Catalog
pages are saved first, then topics, then tables of contents.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd.Context(), func(c *di.Container) error {
			files, err := collectPages(args[0])
			if err != nil {
				return err
			}
			orderForImport(files, c.Engine.Codec())

			for _, f := range files {
				if dryRun {
					fmt.Println(f.title)
					continue
				}
				content, err := os.ReadFile(f.path)
				if err != nil {
					return fmt.Errorf("read %s: %w", f.path, err)
				}
				if err := c.CommandBus.Send(cmd.Context(), commands.SavePageCommand{
					Title:   f.title,
					Content: string(content),
					Summary: "Imported by docsctl",
				}); err != nil {
					return fmt.Errorf("save %s: %w", f.title, err)
				}
			}

			c.Logger.Info("Import finished",
				zap.String("directory", args[0]),
				zap.Int("pages", len(files)),
				zap.Bool("dryRun", dryRun),
			)
			return nil
		})
	},
}

type pageFile struct {
	path  string
	title string
}

func collectPages(root string) ([]pageFile, error) {
	var files []pageFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".wiki" {
			return nil
		}
		files = append(files, pageFile{
			path:  path,
			title: strings.TrimSuffix(d.Name(), ".wiki"),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}

// importRank orders pages so the catalog exists before anything is
// resolved against it and topics exist before their TOC is saved
var importRank = map[valueobjects.TitleKind]int{
	valueobjects.TitleProductList: 0,
	valueobjects.TitleVersionList: 1,
	valueobjects.TitleManualList:  2,
	valueobjects.TitleTopic:       3,
	valueobjects.TitleTOC:         4,
	valueobjects.TitleOther:       5,
}

func orderForImport(files []pageFile, codec *valueobjects.Codec) {
	sort.SliceStable(files, func(i, j int) bool {
		ri := importRank[codec.ClassifyTitle(files[i].title).Kind]
		rj := importRank[codec.ClassifyTitle(files[j].title).Kind]
		if ri != rj {
			return ri < rj
		}
		return files[i].title < files[j].title
	})
}
