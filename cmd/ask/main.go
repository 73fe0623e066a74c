// Command ask is the terminal front end of the personal AI teacher.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/satriahrh/cocoa-fruit/teacher/adapters/catalog"
	"github.com/satriahrh/cocoa-fruit/teacher/adapters/llm"
	"github.com/satriahrh/cocoa-fruit/teacher/domain"
	"github.com/satriahrh/cocoa-fruit/teacher/usecase"
	"github.com/satriahrh/cocoa-fruit/teacher/utils/config"
	"github.com/satriahrh/cocoa-fruit/teacher/utils/log"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).MarginBottom(1)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func main() {
	if err := run(context.Background()); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return
		}
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log.SetupFileOnly(cfg.Debug, cfg.LogFile)
	defer log.Sync()

	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return err
	}

	var model domain.Llm
	gemini, initErr := llm.NewGeminiClient(ctx, llm.Options{
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		APIVersion: cfg.APIVersion,
		BaseURL:    cfg.BaseURL,
	})
	if initErr == nil {
		model = gemini
	}

	svc := usecase.NewTutorService(usecase.Options{
		Llm:     model,
		InitErr: initErr,
		Session: cfg.Session,
		Context: cat.Context(),
		Prompts: cat.Prompts,
	})

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("creating markdown renderer: %w", err)
	}

	fmt.Println(titleStyle.Render(cat.Title))

	for {
		if err := askOnce(ctx, svc, renderer); err != nil {
			return err
		}

		again := true
		if err := huh.NewConfirm().Title("Ask another question?").Value(&again).Run(); err != nil {
			return err
		}
		if !again {
			return nil
		}
	}
}

func askOnce(ctx context.Context, svc *usecase.TutorService, renderer *glamour.TermRenderer) error {
	state := svc.Snapshot()

	semester := state.Semester
	semesterOpts := make([]huh.Option[domain.Semester], 0, 8)
	for _, s := range domain.Semesters() {
		semesterOpts = append(semesterOpts, huh.NewOption(s.Label(), s))
	}

	selected := state.SelectedPrompt
	promptOpts := []huh.Option[string]{huh.NewOption("Select a prompt...", "")}
	for _, p := range svc.Prompts() {
		promptOpts = append(promptOpts, huh.NewOption(p, p))
	}

	if err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[domain.Semester]().Title("Choose Your Semester:").Options(semesterOpts...).Value(&semester),
		huh.NewSelect[string]().Title("Choose a Prompt:").Options(promptOpts...).Value(&selected),
	)).Run(); err != nil {
		return err
	}

	if _, err := svc.SetSemester(ctx, semester); err != nil {
		return err
	}
	if selected != state.SelectedPrompt {
		if _, err := svc.SelectPrompt(ctx, selected); err != nil {
			return err
		}
	}

	question := svc.Snapshot().Question
	if err := huh.NewText().
		Title("Question").
		Placeholder("Ask Me I am Your AI").
		Value(&question).
		Run(); err != nil {
		return err
	}
	svc.SetQuestion(ctx, question)

	var snap usecase.Snapshot
	var runErr error
	if err := spinner.New().
		Title("Loading...").
		Action(func() { snap, runErr = svc.Run(ctx) }).
		Run(); err != nil {
		return err
	}
	if runErr != nil && !errors.Is(runErr, usecase.ErrUnavailable) {
		log.WithCtx(ctx).Warn("Run rejected", zap.Error(runErr))
	}

	return printResult(renderer, snap)
}

func printResult(renderer *glamour.TermRenderer, snap usecase.Snapshot) error {
	if snap.Failed {
		fmt.Println(errorStyle.Render(snap.Result))
		return nil
	}
	if snap.Result == "" {
		return nil
	}

	out, err := renderer.Render(snap.Result)
	if err != nil {
		// still show the answer even if it cannot be styled
		fmt.Println(snap.Result)
		return nil
	}
	fmt.Print(lipgloss.NewStyle().Bold(true).Render("Result:") + "\n" + out)
	return nil
}
