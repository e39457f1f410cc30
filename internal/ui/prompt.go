package ui

import (
	"errors"
	"fmt"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/manifoldco/promptui"
)

// ConfirmPrompt asks a yes/no confirmation question
func ConfirmPrompt(label string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}

	result, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, fmt.Errorf("operation cancelled by user")
		}
		return false, err
	}

	// promptui returns "y" for yes
	return result == "y", nil
}

// SelectPrompt presents a list of options for selection
func SelectPrompt(label string, items []string) (int, string, error) {
	prompt := promptui.Select{
		Label: label,
		Items: items,
	}

	index, result, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return -1, "", fmt.Errorf("selection cancelled by user")
		}
		return -1, "", err
	}

	return index, result, nil
}

// SelectPromptWithSearch presents a fuzzy-searchable list of options
func SelectPromptWithSearch(label string, items []string) (int, string, error) {
	prompt := promptui.Select{
		Label:             label,
		Items:             items,
		StartInSearchMode: len(items) > 5,
		Searcher: func(input string, index int) bool {
			return fuzzy.MatchFold(input, items[index])
		},
	}

	index, result, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return -1, "", fmt.Errorf("selection cancelled by user")
		}
		return -1, "", err
	}

	return index, result, nil
}
