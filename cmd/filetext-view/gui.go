//go:build gui

package main

import (
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

func lineHeight() float32 {
	return fyne.MeasureText("M", theme.TextSize(), fyne.TextStyle{}).Height
}

func totalLines(scroll *container.Scroll) int {
	return int(scroll.Content.MinSize().Height / lineHeight())
}

func main() {
	doc := mustLoad(parseArgs())

	a := app.New()
	w := a.NewWindow("filetext - " + doc.name)

	body := widget.NewLabel(doc.text)
	body.Wrapping = fyne.TextWrapWord
	scroll := container.NewVScroll(body)

	status := widget.NewLabel(doc.summary())
	status.TextStyle = fyne.TextStyle{Italic: true}

	w.SetContent(container.NewBorder(status, nil, nil, nil, scroll))
	w.Resize(fyne.NewSize(800, 600))

	var saveOnce sync.Once
	save := func() {
		saveOnce.Do(func() {
			doc.saveLine(int(scroll.Offset.Y/lineHeight()), totalLines(scroll))
		})
	}

	w.Canvas().SetOnTypedKey(func(key *fyne.KeyEvent) {
		switch key.Name {
		case fyne.KeyHome:
			scroll.ScrollToTop()
		case fyne.KeyEnd:
			scroll.ScrollToBottom()
		case fyne.KeyEscape, fyne.KeyQ:
			save()
			a.Quit()
		}
	})

	w.Canvas().SetOnTypedRune(func(r rune) {
		switch r {
		case 'r', 'R':
			doc.clearLine()
			scroll.ScrollToTop()
		case 'f', 'F':
			w.SetFullScreen(!w.FullScreen())
		}
	})

	w.SetOnClosed(save)

	if line := doc.savedLine(totalLines(scroll)); line > 0 {
		scroll.Offset = fyne.NewPos(0, float32(line)*lineHeight())
		scroll.Refresh()
	}

	w.ShowAndRun()
}
