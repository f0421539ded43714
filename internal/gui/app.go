// Package gui is the desktop window: three text inputs, the follow-front
// and keep-previous toggles, and the Fire and Reset buttons driving a
// session.State.
package gui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/kpauljoseph/ankicopycard/internal/furigana"
	"github.com/kpauljoseph/ankicopycard/internal/session"
	"github.com/kpauljoseph/ankicopycard/pkg/logger"
	"github.com/kpauljoseph/ankicopycard/pkg/version"
)

// App owns the window and the session it renders. Every method runs on
// the fyne main goroutine.
type App struct {
	fyneApp fyne.App
	window  fyne.Window
	log     *logger.Logger
	state   *session.State

	annotator *furigana.Annotator

	// syncing is set while state is pushed into widgets so that the
	// resulting OnChanged callbacks are ignored.
	syncing bool

	frontEntry    *widget.Entry
	guideEntry    *widget.Entry
	backEntry     *widget.Entry
	followCheck   *widget.Check
	retainCheck   *widget.Check
	previousLabel *widget.Label
	previousReset *widget.Button
	firedLabel    *widget.Label
}

func New(log *logger.Logger, submitter session.Submitter, options ...session.Option) *App {
	return NewWithApp(app.New(), log, submitter, options...)
}

// NewWithApp builds the window on an existing fyne application. options
// are applied to the session after the window's own.
func NewWithApp(fyneApp fyne.App, log *logger.Logger, submitter session.Submitter, options ...session.Option) *App {
	a := &App{
		fyneApp: fyneApp,
		log:     log,
	}
	a.window = a.fyneApp.NewWindow("Anki Copy Card")
	a.state = session.New(submitter, append([]session.Option{
		session.WithLogger(log),
		session.WithWake(func() { fyne.Do(a.poll) }),
	}, options...)...)
	a.setupUI()
	return a
}

func (a *App) Run() {
	a.log.Info("Starting %s", version.GetVersionInfo())
	a.window.ShowAndRun()
}

func (a *App) setupUI() {
	a.frontEntry = widget.NewEntry()
	a.frontEntry.SetPlaceHolder("噛[か]み 殺[ころ]す")
	a.frontEntry.OnChanged = func(text string) {
		if a.syncing {
			return
		}
		a.state.SetFront(text)
		a.sync()
	}

	a.guideEntry = widget.NewEntry()
	a.guideEntry.SetPlaceHolder("噛み殺す")
	a.guideEntry.OnChanged = func(text string) {
		if a.syncing {
			return
		}
		a.state.SetAudioGuide(text)
	}

	a.backEntry = widget.NewMultiLineEntry()
	a.backEntry.SetPlaceHolder("Meaning (defaults to the current card's)")
	a.backEntry.Wrapping = fyne.TextWrapWord
	a.backEntry.SetMinRowsVisible(4)
	a.backEntry.OnChanged = func(text string) {
		if a.syncing {
			return
		}
		a.state.SetBack(text)
	}

	a.followCheck = widget.NewCheck("Follow Front", func(checked bool) {
		if a.syncing {
			return
		}
		a.state.SetFollowFront(checked)
		a.sync()
	})

	a.retainCheck = widget.NewCheck("Maintain current card for next round", func(checked bool) {
		if a.syncing {
			return
		}
		a.state.SetRetainPrevious(checked)
		a.sync()
	})

	furiganaBtn := widget.NewButton("Furigana", a.handleFurigana)

	fireBtn := widget.NewButtonWithIcon("Fire", theme.MailSendIcon(), a.handleFire)
	fireBtn.Importance = widget.HighImportance

	resetBtn := widget.NewButtonWithIcon("Reset", theme.ContentClearIcon(), func() {
		a.state.Reset()
		a.sync()
	})

	a.previousLabel = widget.NewLabel("")
	a.previousLabel.Wrapping = fyne.TextWrapWord
	a.previousReset = widget.NewButton("Reset Previous Card", func() {
		a.state.ClearPreviousCard()
		a.sync()
	})

	a.firedLabel = widget.NewLabel("")

	frontRow := container.NewBorder(nil, nil, nil, furiganaBtn, a.frontEntry)
	guideRow := container.NewBorder(nil, nil, nil, a.followCheck, a.guideEntry)

	form := widget.NewForm(
		widget.NewFormItem("Front", frontRow),
		widget.NewFormItem("Audio Guide", guideRow),
		widget.NewFormItem("Back", a.backEntry),
	)

	content := container.NewVBox(
		widget.NewLabelWithStyle("Anki Copy Card", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		widget.NewCard("", "Empty inputs keep the current card's values.", form),
		a.retainCheck,
		container.NewBorder(nil, nil, nil, a.previousReset, a.previousLabel),
		container.NewGridWithColumns(2, fireBtn, resetBtn),
		a.firedLabel,
	)

	a.window.SetContent(container.NewPadded(container.NewScroll(content)))
	a.window.Resize(fyne.NewSize(800, 600))
	a.window.SetFixedSize(false)

	a.sync()
}

// sync pushes the session state into the widgets.
func (a *App) sync() {
	a.syncing = true
	defer func() { a.syncing = false }()

	if a.frontEntry.Text != a.state.Front() {
		a.frontEntry.SetText(a.state.Front())
	}
	if a.guideEntry.Text != a.state.AudioGuide() {
		a.guideEntry.SetText(a.state.AudioGuide())
	}
	if a.backEntry.Text != a.state.Back() {
		a.backEntry.SetText(a.state.Back())
	}
	a.followCheck.SetChecked(a.state.FollowFront())
	a.retainCheck.SetChecked(a.state.RetainPrevious())

	if previous := a.state.PreviousCard(); previous != nil {
		a.previousLabel.SetText(fmt.Sprintf("Firing will be based on previous card fired: %s", previous.Front))
		a.previousLabel.Show()
		a.previousReset.Show()
	} else {
		a.previousLabel.Hide()
		a.previousReset.Hide()
	}

	a.firedLabel.SetText(fmt.Sprintf("Fired: %d", a.state.FiredCount()))
}

func (a *App) handleFire() {
	a.state.Fire()
	a.sync()
}

// poll drains at most one completion per wake.
func (a *App) poll() {
	if card, ok := a.state.PollCompletion(); ok {
		a.log.Debug("Card %q submitted", card.Front)
		a.sync()
	}
}

func (a *App) handleFurigana() {
	if a.annotator == nil {
		annotator, err := furigana.NewAnnotator()
		if err != nil {
			a.log.Info("Failed to load furigana dictionary: %v", err)
			dialog.ShowError(err, a.window)
			return
		}
		a.annotator = annotator
	}
	a.state.SetFront(a.annotator.Annotate(a.state.Front()))
	a.sync()
}
