// Package recipe loads the read-only catalog of cocktails and the pump motors that pour each ingredient.
package recipe

import (
	"errors"
	"fmt"

	"github.com/calvinmclean/barbot"
)

var (
	// ErrUnknownRecipe is returned when a recipe name is not in the Catalog
	ErrUnknownRecipe = errors.New("unknown recipe")
	// ErrStartupData is returned when the recipe source is missing, malformed, or references pumps that do
	// not exist. It is fatal at startup
	ErrStartupData = errors.New("invalid recipe data")
)

// Ingredient is one pour of a Recipe
type Ingredient struct {
	Motor    int     `json:"motor" yaml:"motor"`
	Name     string  `json:"name" yaml:"name"`
	Quantity float64 `json:"quantity" yaml:"quantity"`
}

// Recipe is a named list of ingredients
type Recipe struct {
	Name        string       `json:"-" yaml:"-"`
	Ingredients []Ingredient `json:"ingredients" yaml:"ingredients"`
	ImagePath   string       `json:"imgpath,omitempty" yaml:"imgpath,omitempty"`
	ImageURL    string       `json:"image_url,omitempty" yaml:"image_url,omitempty"`

	// Code overrides the LED command sent when this recipe starts
	Code barbot.Command `json:"code,omitempty" yaml:"code,omitempty"`
}

// StartCommand returns the LED command for this recipe. The second return is false when the recipe has none
func (r Recipe) StartCommand() (barbot.Command, bool) {
	if r.Code != barbot.CommandUnknown {
		return r.Code, true
	}
	cmd, ok := barbot.RecipeCommands[r.Name]
	return cmd, ok
}

// TotalVolume is the sum of all ingredient quantities in mL
func (r Recipe) TotalVolume() float64 {
	var total float64
	for _, i := range r.Ingredients {
		total += i.Quantity
	}
	return total
}

func (r Recipe) validate(pumpExists func(int) bool) error {
	if len(r.Ingredients) == 0 {
		return fmt.Errorf("%w: recipe %q has no ingredients", ErrStartupData, r.Name)
	}

	seen := map[int]bool{}
	for _, i := range r.Ingredients {
		if !(i.Quantity > 0) {
			return fmt.Errorf("%w: recipe %q: ingredient %q has invalid quantity %v", ErrStartupData, r.Name, i.Name, i.Quantity)
		}
		if pumpExists != nil && !pumpExists(i.Motor) {
			return fmt.Errorf("%w: recipe %q: ingredient %q uses unknown motor %d", ErrStartupData, r.Name, i.Name, i.Motor)
		}
		if seen[i.Motor] {
			return fmt.Errorf("%w: recipe %q uses motor %d more than once", ErrStartupData, r.Name, i.Motor)
		}
		seen[i.Motor] = true
	}

	return nil
}
