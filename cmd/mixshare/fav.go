package main

import (
	"fmt"
	"os"

	"mixshare/internal/app"

	"github.com/spf13/cobra"
)

var favCmd = &cobra.Command{
	Use:   "fav",
	Short: "Manage favorites",
}

var favAddCmd = &cobra.Command{
	Use:   "add CODE",
	Short: "Add a favorite",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		category, _ := cmd.Flags().GetString("category")

		a, err := newApp("AddFavorite")
		if err != nil {
			return err
		}
		defer a.Close()

		added, err := a.AddFavorite(args[0], name, category)
		if err != nil {
			return err
		}
		if !added {
			fmt.Println("Already a favorite.")
			return nil
		}
		fmt.Println("Added.")
		return nil
	},
}

var favRemoveCmd = &cobra.Command{
	Use:     "rm CODE",
	Aliases: []string{"remove"},
	Short:   "Remove a favorite",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("RemoveFavorite")
		if err != nil {
			return err
		}
		defer a.Close()

		removed, err := a.RemoveFavorite(args[0])
		if err != nil {
			return err
		}
		if !removed {
			fmt.Println("Not a favorite.")
			return nil
		}
		fmt.Println("Removed.")
		return nil
	},
}

var favRenameCmd = &cobra.Command{
	Use:   "rename CODE NAME",
	Short: "Rename a favorite",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Rename")
		if err != nil {
			return err
		}
		defer a.Close()

		changed, err := a.Rename(args[0], args[1])
		if err != nil {
			return err
		}
		if !changed {
			fmt.Println("Nothing to rename.")
		}
		return nil
	},
}

var favCategoryCmd = &cobra.Command{
	Use:   "category CODE CATEGORY",
	Short: "Move a favorite into a category (empty clears it)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("SetCategory")
		if err != nil {
			return err
		}
		defer a.Close()

		changed, err := a.SetCategory(args[0], args[1])
		if err != nil {
			return err
		}
		if !changed {
			fmt.Println("Nothing to change.")
		}
		return nil
	},
}

var favListCmd = &cobra.Command{
	Use:   "list",
	Short: "List favorites",
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")
		format, _ := cmd.Flags().GetString("output")

		a, err := newApp("Favorites")
		if err != nil {
			return err
		}
		defer a.Close()

		records := a.Favorites(category)
		if len(records) == 0 && format == "text" {
			fmt.Println("No favorites.")
			return nil
		}
		return writeFavorites(os.Stdout, records, format)
	},
}

var favCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List categories in use",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Categories")
		if err != nil {
			return err
		}
		defer a.Close()

		for _, c := range a.Categories() {
			fmt.Println(c)
		}
		return nil
	},
}

var favShareListCmd = &cobra.Command{
	Use:   "share-list PATH",
	Short: "Write favorites to a file list that others can open",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")

		a, err := newApp("ShareList")
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.ShareList(category, args[0])
		if err != nil {
			return err
		}
		printShareResult(res)
		return nil
	},
}

var favShareTreeCmd = &cobra.Command{
	Use:   "share-tree PATH",
	Short: "Write favorites to a vfs manifest, one folder per category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")

		a, err := newApp("ShareTree")
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.ShareTree(category, args[0])
		if err != nil {
			return err
		}
		printShareResult(res)
		return nil
	},
}

func printShareResult(res *app.ShareResult) {
	fmt.Printf("Wrote %d favorite(s) to %s\n", res.Written, res.Path)
	if res.Skipped > 0 {
		fmt.Printf("Skipped %d favorite(s) whose short code is unknown here\n", res.Skipped)
	}
}

func init() {
	favCmd.AddCommand(favAddCmd)
	favAddCmd.Flags().String("name", "", "Display name")
	favAddCmd.Flags().StringP("category", "c", "", "Category")
	favCmd.AddCommand(favRemoveCmd)
	favCmd.AddCommand(favRenameCmd)
	favCmd.AddCommand(favCategoryCmd)
	favCmd.AddCommand(favListCmd)
	favListCmd.Flags().StringP("category", "c", "", "Only list this category")
	favListCmd.Flags().StringP("output", "o", "text", "Output format: text, json or yaml")
	favCmd.AddCommand(favCategoriesCmd)
	favCmd.AddCommand(favShareListCmd)
	favShareListCmd.Flags().StringP("category", "c", "", "Only include this category")
	favCmd.AddCommand(favShareTreeCmd)
	favShareTreeCmd.Flags().StringP("category", "c", "", "Only include this category")
}
