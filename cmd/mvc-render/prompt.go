package main

import (
	"errors"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// prompter asks for the value of a model the command line did not supply.
type prompter func(name, problem string) (string, error)

var errPromptAborted = errors.New("prompt aborted")

func surveyPrompt(name, problem string) (string, error) {
	var out string
	prompt := &survey.Input{
		Message: name + ":",
		Help:    problem,
	}
	if err := survey.AskOne(prompt, &out, survey.WithValidator(survey.Required)); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return "", errPromptAborted
		}
		return "", err
	}
	return out, nil
}
