package gui

import (
	"context"
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"github.com/clipmark/clipmark/internal/config"
	"github.com/clipmark/clipmark/internal/event"
	"github.com/clipmark/clipmark/internal/extract"
	"github.com/clipmark/clipmark/internal/ffmpeg"
	"github.com/clipmark/clipmark/internal/segment"
	"github.com/clipmark/clipmark/pkg/util"
)

var tableHeaders = []string{"File", "Start", "End", "Length", "Type", "Opinion 1", "Opinion 2"}

// App wires the widgets to the store, selection and extraction manager.
type App struct {
	logger    zerolog.Logger
	cfg       *config.Config
	bus       *event.Bus
	store     *segment.Store
	selection *segment.Selection
	manager   *extract.Manager
	prober    *ffmpeg.Prober

	window fyne.Window
	pump   *Pump

	videoPath string
	duration  float64
	markStart float64
	markEnd   float64

	videoLabel    *widget.Label
	positionLabel *widget.Label
	markLabel     *widget.Label
	statusLabel   *widget.Label
	progress      *widget.ProgressBar
	slider        *widget.Slider
	table         *widget.Table
}

// Run builds the window and blocks until it is closed.
func Run(logger zerolog.Logger, cfg *config.Config, bus *event.Bus, store *segment.Store,
	selection *segment.Selection, manager *extract.Manager, prober *ffmpeg.Prober) {

	a := &App{
		logger:    logger.With().Str("component", "gui").Logger(),
		cfg:       cfg,
		bus:       bus,
		store:     store,
		selection: selection,
		manager:   manager,
		prober:    prober,
		pump:      NewPump(),
	}

	fyneApp := app.NewWithID("com.clipmark.app")
	a.window = fyneApp.NewWindow("clipmark")
	a.window.Resize(fyne.NewSize(900, 600))

	a.buildWidgets()
	a.subscribe()
	a.pump.Start()

	a.window.SetContent(a.layout())
	a.window.ShowAndRun()

	// Window is gone: stop in-flight jobs and let them reach their terminal
	// events before the pump shuts down.
	a.manager.CancelAll()
	a.manager.Wait()
	a.pump.Close()
}

func (a *App) buildWidgets() {
	a.videoLabel = widget.NewLabel("No video loaded")
	a.positionLabel = widget.NewLabel("Position: 00:00:00")
	a.markLabel = widget.NewLabel("Marked: -")
	a.statusLabel = widget.NewLabel("")
	a.progress = widget.NewProgressBar()

	a.slider = widget.NewSlider(0, 100)
	a.slider.Step = 0.1
	a.slider.OnChanged = func(val float64) {
		a.positionLabel.SetText("Position: " + util.FormatClock(val))
	}

	a.table = widget.NewTable(
		func() (int, int) { return a.store.Len() + 1, len(tableHeaders) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.TableCellID, obj fyne.CanvasObject) {
			label := obj.(*widget.Label)
			if id.Row == 0 {
				label.TextStyle = fyne.TextStyle{Bold: true}
				label.SetText(tableHeaders[id.Col])
				return
			}
			label.TextStyle = fyne.TextStyle{}
			segs := a.store.All()
			if id.Row-1 >= len(segs) {
				label.SetText("")
				return
			}
			label.SetText(cellText(segs[id.Row-1], id.Col))
		},
	)
	a.table.OnSelected = func(id widget.TableCellID) {
		if id.Row == 0 {
			return
		}
		segs := a.store.All()
		if id.Row-1 >= len(segs) {
			return
		}
		seg := segs[id.Row-1]
		a.selection.Set(seg.ID)
		if id.Col == 5 || id.Col == 6 {
			a.editOpinion(seg, id.Col)
		}
	}
}

func cellText(seg *segment.Segment, col int) string {
	switch col {
	case 0:
		return seg.File
	case 1:
		return util.FormatClock(seg.Start)
	case 2:
		return util.FormatClock(seg.End)
	case 3:
		return util.FormatClock(seg.Duration())
	case 4:
		return seg.Type
	case 5:
		return seg.Opinion1
	case 6:
		return seg.Opinion2
	}
	return ""
}

func (a *App) layout() fyne.CanvasObject {
	markRow := container.NewHBox(
		widget.NewButton("Mark Start", func() {
			a.markStart = a.slider.Value
			a.updateMarkLabel()
		}),
		widget.NewButton("Mark End", func() {
			a.markEnd = a.slider.Value
			a.updateMarkLabel()
		}),
		widget.NewButton("Save Segment", a.saveSegment),
		widget.NewButton("Delete Selected", a.deleteSelected),
	)

	extractRow := container.NewHBox(
		widget.NewButton("Extract Video", func() {
			a.startExtraction(func() error { return a.manager.ExtractVideo(nil) })
		}),
		widget.NewButton("Extract Images", func() {
			a.startExtraction(func() error { return a.manager.ExtractImages(nil) })
		}),
		widget.NewButton("Extract Audio (mp3)", func() {
			a.startExtraction(func() error { return a.manager.ExtractAudio(nil, ffmpeg.FormatMP3) })
		}),
		widget.NewButton("Cancel", func() { a.manager.CancelAll() }),
		widget.NewButton("Export CSV", a.exportCSV),
	)

	top := container.NewVBox(
		container.NewHBox(widget.NewButton("Load Video", a.loadVideo), a.videoLabel),
		a.slider,
		container.NewHBox(a.positionLabel, a.markLabel),
		markRow,
		extractRow,
		a.progress,
		a.statusLabel,
	)

	return container.NewBorder(top, nil, nil, nil, a.table)
}

func (a *App) updateMarkLabel() {
	a.markLabel.SetText(fmt.Sprintf("Marked: %s -> %s",
		util.FormatClock(a.markStart), util.FormatClock(a.markEnd)))
}

func (a *App) loadVideo() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		path := reader.URI().Path()
		_ = reader.Close()

		a.videoPath = path
		a.manager.SetSource(path)
		a.videoLabel.SetText("Loaded: " + path)
		a.logger.Info().Str("video", path).Msg("video loaded")

		a.duration = a.probeDuration(path)
		a.slider.Min = 0
		a.slider.Max = a.duration
		a.slider.SetValue(0)
	}, a.window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".mp4", ".mov", ".mkv", ".avi"}))
	fd.Show()
}

func (a *App) probeDuration(path string) float64 {
	if a.prober == nil {
		a.statusLabel.SetText("ffprobe unavailable: timeline length unknown, assuming 1 hour")
		return 3600
	}
	info, err := a.prober.Probe(context.Background(), path)
	if err != nil {
		a.logger.Warn().Err(err).Msg("probe failed")
		a.statusLabel.SetText("Could not read video duration, assuming 1 hour")
		return 3600
	}
	return info.Duration.Seconds()
}

func (a *App) saveSegment() {
	if a.videoPath == "" {
		a.statusLabel.SetText("Load a video first")
		return
	}
	if err := segment.Validate(a.markStart, a.markEnd); err != nil {
		dialog.ShowError(err, a.window)
		return
	}
	if a.store.NearDuplicate(a.markStart, a.markEnd) {
		a.statusLabel.SetText("A segment with this range already exists")
		return
	}

	seg := segment.New(a.videoPath, a.markStart, a.markEnd)
	a.store.Add(seg)
	a.selection.Set(seg.ID)
	a.table.Refresh()
	a.statusLabel.SetText(fmt.Sprintf("Saved segment %s -> %s",
		util.FormatClock(seg.Start), util.FormatClock(seg.End)))
}

func (a *App) deleteSelected() {
	id := a.selection.ID()
	if id == "" {
		a.statusLabel.SetText("No segment selected")
		return
	}
	if a.store.RemoveByID(id) {
		a.selection.Clear()
		a.table.Refresh()
		a.statusLabel.SetText("Segment deleted")
	}
}

func (a *App) editOpinion(seg *segment.Segment, col int) {
	title := "Opinion 1"
	current := seg.Opinion1
	if col == 6 {
		title = "Opinion 2"
		current = seg.Opinion2
	}

	entry := widget.NewEntry()
	entry.SetText(current)
	dialog.ShowForm(title, "Save", "Cancel",
		[]*widget.FormItem{widget.NewFormItem(title, entry)},
		func(ok bool) {
			if !ok {
				return
			}
			text := segment.ClampOpinion(entry.Text)
			if col == 6 {
				seg.Opinion2 = text
			} else {
				seg.Opinion1 = text
			}
			a.table.Refresh()
		}, a.window)
}

func (a *App) exportCSV() {
	if a.store.Len() == 0 {
		a.statusLabel.SetText("No segments to export")
		return
	}

	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		defer writer.Close()
		if err := a.store.WriteCSV(writer); err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		a.statusLabel.SetText("Exported " + writer.URI().Name())
	}, a.window)
	fd.SetFileName(segment.DefaultCSVName(a.videoPath, a.store.Len(), time.Now(), a.cfg.Export.MaxNameLen))
	fd.Show()
}

// startExtraction reports synchronous rejections (busy, invalid input,
// missing tool) immediately; everything later arrives through the bus.
func (a *App) startExtraction(start func() error) {
	if err := start(); err != nil {
		a.statusLabel.SetText(err.Error())
	}
}

// subscribe routes extraction lifecycle events through the pump onto the UI
// thread. Exactly one status update per terminal state; progress only moves
// the bar.
func (a *App) subscribe() {
	a.bus.Subscribe(extract.EventProgress, func(f event.Fields) {
		percent, _ := f["percent"].(float64)
		a.pump.Post(func() {
			a.progress.SetValue(percent / 100)
		})
	})
	a.bus.Subscribe(extract.EventComplete, func(f event.Fields) {
		msg, _ := f["message"].(string)
		a.pump.Post(func() {
			a.progress.SetValue(1)
			a.statusLabel.SetText(msg)
		})
	})
	a.bus.Subscribe(extract.EventError, func(f event.Fields) {
		msg, _ := f["message"].(string)
		a.pump.Post(func() {
			a.statusLabel.SetText("Extraction failed: " + msg)
			dialog.ShowError(fmt.Errorf("%s", msg), a.window)
		})
	})
	a.bus.Subscribe(extract.EventCancelled, func(f event.Fields) {
		extracted, _ := f["extracted"].(int)
		a.pump.Post(func() {
			a.statusLabel.SetText(fmt.Sprintf("Cancelled (%d files kept)", extracted))
		})
	})
}
