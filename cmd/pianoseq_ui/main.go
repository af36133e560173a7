package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/sqweek/dialog"

	pianoseq "github.com/pianoseq/pianoseq-go"
	"github.com/pianoseq/pianoseq-go/internal/notation"
	"github.com/pianoseq/pianoseq-go/internal/scheduler"
)

const (
	uiSampleRate = 48000

	lowestKey = 21 // A0
	keyCount  = 88

	whiteKeyW = 22
	whiteKeyH = 150
	blackKeyW = 13
	blackKeyH = 95

	hudH    = 90
	windowW = 52 * whiteKeyW
	windowH = hudH + whiteKeyH
)

var (
	bgColor        = color.RGBA{40, 42, 50, 255}
	whiteKeyColor  = color.RGBA{235, 235, 230, 255}
	blackKeyColor  = color.RGBA{25, 25, 28, 255}
	keyBorderColor = color.RGBA{70, 70, 78, 255}
	whiteLitColor  = color.RGBA{120, 180, 255, 255}
	blackLitColor  = color.RGBA{60, 120, 210, 255}
)

type loadResult struct {
	path string
	text string
	err  error
}

type game struct {
	pl     *pianoseq.Player
	watch  <-chan pianoseq.PlaybackEvent
	loadCh chan loadResult

	keys     [keyCount]image.Rectangle
	mouseKey int // pitch held by the mouse, -1 when none

	fileName string
	status   string
	picking  bool
}

func newGame(pl *pianoseq.Player) *game {
	g := &game{
		pl:       pl,
		watch:    pl.Watch(),
		loadCh:   make(chan loadResult, 1),
		mouseKey: -1,
		status:   "SPACE play | S stop | R open file | Up/Down tempo | click keys to play",
	}
	g.layoutKeys()
	return g
}

// layoutKeys places 88 keys starting at A0. White keys tile left to right;
// each black key straddles the boundary after its white neighbor.
func (g *game) layoutKeys() {
	whiteX := 0
	for i := 0; i < keyCount; i++ {
		pitch := lowestKey + i
		if notation.IsBlackKey(pitch) {
			x := whiteX - blackKeyW/2
			g.keys[i] = image.Rect(x, hudH, x+blackKeyW, hudH+blackKeyH)
			continue
		}
		g.keys[i] = image.Rect(whiteX, hudH, whiteX+whiteKeyW, hudH+whiteKeyH)
		whiteX += whiteKeyW
	}
}

// keyAt hit-tests black keys first since they overlap the white row.
func (g *game) keyAt(x, y int) int {
	pt := image.Pt(x, y)
	for i := 0; i < keyCount; i++ {
		if notation.IsBlackKey(lowestKey+i) && pt.In(g.keys[i]) {
			return lowestKey + i
		}
	}
	for i := 0; i < keyCount; i++ {
		if !notation.IsBlackKey(lowestKey+i) && pt.In(g.keys[i]) {
			return lowestKey + i
		}
	}
	return -1
}

func (g *game) Update() error {
	g.pl.Advance()

	select {
	case <-g.watch:
		g.status = "playback completed"
	case res := <-g.loadCh:
		g.picking = false
		g.applyLoad(res)
	default:
	}

	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		if err := g.pl.Play(); err != nil {
			g.status = err.Error()
		} else {
			g.status = "playing"
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.pl.Stop()
		g.status = "stopped"
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) && !g.picking {
		g.picking = true
		go pickAndRead(g.loadCh)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyUp) {
		g.pl.AdjustBPM(1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDown) {
		g.pl.AdjustBPM(-1)
	}

	g.updateMouse()
	return nil
}

func (g *game) updateMouse() {
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		pitch := g.keyAt(x, y)
		if pitch != g.mouseKey {
			if g.mouseKey >= 0 {
				g.pl.ReleaseKey(g.mouseKey)
			}
			if pitch >= 0 {
				g.pl.PressKey(pitch)
			}
			g.mouseKey = pitch
		}
		return
	}
	if g.mouseKey >= 0 {
		g.pl.ReleaseKey(g.mouseKey)
		g.mouseKey = -1
	}
}

// pickAndRead runs on its own goroutine: the native file dialog blocks.
func pickAndRead(ch chan<- loadResult) {
	path, err := dialog.File().Filter("sequence files", "txt", "seq").Load()
	if err != nil {
		if err == dialog.Cancelled {
			ch <- loadResult{}
			return
		}
		ch <- loadResult{err: err}
		return
	}
	ch <- loadResult{path: path}
}

func (g *game) applyLoad(res loadResult) {
	if res.err != nil {
		g.status = res.err.Error()
		return
	}
	if res.path == "" {
		return
	}
	g.pl.Stop()
	if err := g.pl.LoadFile(res.path); err != nil {
		g.status = fmt.Sprintf("load %s: %v", filepath.Base(res.path), err)
		g.fileName = ""
		return
	}
	g.fileName = filepath.Base(res.path)
	g.status = fmt.Sprintf("loaded %s (%d events), SPACE to play", g.fileName, g.pl.EventCount())
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(bgColor)

	active := make(map[int]bool)
	for _, p := range g.pl.ActivePitches() {
		active[p] = true
	}

	// White keys first, black keys on top.
	for i := 0; i < keyCount; i++ {
		pitch := lowestKey + i
		if notation.IsBlackKey(pitch) {
			continue
		}
		col := whiteKeyColor
		if active[pitch] {
			col = whiteLitColor
		}
		r := g.keys[i]
		ebitenutil.DrawRect(screen, float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()), keyBorderColor)
		ebitenutil.DrawRect(screen, float64(r.Min.X+1), float64(r.Min.Y), float64(r.Dx()-2), float64(r.Dy()-1), col)
	}
	for i := 0; i < keyCount; i++ {
		pitch := lowestKey + i
		if !notation.IsBlackKey(pitch) {
			continue
		}
		col := blackKeyColor
		if active[pitch] {
			col = blackLitColor
		}
		r := g.keys[i]
		ebitenutil.DrawRect(screen, float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()), col)
	}

	// C labels orient the player on the long keyboard.
	for i := 0; i < keyCount; i++ {
		pitch := lowestKey + i
		name := notation.NoteName(pitch)
		if !strings.HasPrefix(name, "C") || strings.HasPrefix(name, "C#") {
			continue
		}
		r := g.keys[i]
		ebitenutil.DebugPrintAt(screen, name, r.Min.X+3, r.Max.Y-18)
	}

	g.drawHUD(screen)
}

func (g *game) drawHUD(screen *ebiten.Image) {
	name := g.fileName
	if name == "" {
		name = "(no file)"
	}
	state := "stopped"
	if g.pl.Playing() {
		state = "playing"
	}
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("pianoseq  %s  BPM: %d  [%s]", name, g.pl.BPM(), state), 8, 8)
	ebitenutil.DebugPrintAt(screen, progressLine(g.pl.Progress()), 8, 28)
	ebitenutil.DebugPrintAt(screen, g.status, 8, 48)
}

func progressLine(tracks []scheduler.TrackProgress) string {
	parts := make([]string, 0, len(tracks))
	for _, t := range tracks {
		parts = append(parts, fmt.Sprintf("%s:%d/%d", t.Label, t.Position, t.Total))
	}
	return strings.Join(parts, "  ")
}

func (g *game) Layout(outsideW, outsideH int) (int, int) {
	return windowW, windowH
}

func main() {
	var (
		seqPath  = flag.String("file", "", "sequence file to load at startup")
		bpm      = flag.Int("bpm", 120, "initial tempo")
		midiPort = flag.Int("midi", -1, "MIDI output port index (-1 = none)")
	)
	flag.Parse()

	opts := []pianoseq.PlayerOption{pianoseq.WithBPM(*bpm)}
	if *midiPort >= 0 {
		opts = append(opts, pianoseq.WithMIDIPort(*midiPort))
	}
	pl, err := pianoseq.NewPlayer(uiSampleRate, opts...)
	if err != nil {
		log.Fatal(err)
	}
	defer pl.Close()

	g := newGame(pl)
	if *seqPath != "" {
		g.applyLoad(loadResult{path: *seqPath})
	}

	ebiten.SetWindowSize(windowW, windowH)
	ebiten.SetWindowTitle("pianoseq")
	// Update doubles as the scheduler tick, so run it faster than the
	// default 60 TPS to keep note boundaries tight.
	ebiten.SetTPS(240)
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
