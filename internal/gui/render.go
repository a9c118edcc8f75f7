package gui

import (
	"image/color"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/san-kum/fieldsim/internal/dynamo"
)

// Surface draws into an off-screen render texture. The texture survives
// between frames, so Fade leaves trails the same way a canvas does.
//
// Drawing methods must run between BeginTextureMode and EndTextureMode on
// the window's thread; App.frame takes care of that.
type Surface struct {
	target     rl.RenderTexture2D
	loaded     bool
	font       rl.Font
	w, h       float64
	Background color.NRGBA
}

func NewSurface(font rl.Font, w, h float64) *Surface {
	s := &Surface{font: font, Background: color.NRGBA{R: 10, G: 10, B: 10, A: 255}}
	s.Resize(w, h)
	return s
}

func (s *Surface) Size() (float64, float64) { return s.w, s.h }

// Resize reallocates the render texture. Like a canvas, resizing clears it.
func (s *Surface) Resize(w, h float64) {
	s.w, s.h = math.Max(w, 0), math.Max(h, 0)
	if s.loaded {
		rl.UnloadRenderTexture(s.target)
		s.loaded = false
	}
	if s.w < 1 || s.h < 1 {
		return
	}
	s.target = rl.LoadRenderTexture(int32(s.w), int32(s.h))
	s.loaded = true
	rl.BeginTextureMode(s.target)
	rl.ClearBackground(rlColor(s.Background))
	rl.EndTextureMode()
}

func (s *Surface) Unload() {
	if s.loaded {
		rl.UnloadRenderTexture(s.target)
		s.loaded = false
	}
}

func (s *Surface) Clear() { rl.ClearBackground(rlColor(s.Background)) }

func (s *Surface) Fade(alpha float64) {
	rl.DrawRectangle(0, 0, int32(s.w), int32(s.h), rl.ColorAlpha(rlColor(s.Background), float32(alpha)))
}

func (s *Surface) FillCircle(c dynamo.Vec, r float64, col color.NRGBA) {
	rl.DrawCircleV(vec2(c), float32(r), rlColor(col))
}

func (s *Surface) StrokeCircle(c dynamo.Vec, r, width float64, col color.NRGBA) {
	half := float32(width / 2)
	rl.DrawRing(vec2(c), float32(r)-half, float32(r)+half, 0, 360, 48, rlColor(col))
}

func (s *Surface) Line(a, b dynamo.Vec, width float64, col color.NRGBA) {
	rl.DrawLineEx(vec2(a), vec2(b), float32(width), rlColor(col))
}

func (s *Surface) Text(at dynamo.Vec, str string, size float64, col color.NRGBA) {
	fs := float32(size)
	m := rl.MeasureTextEx(s.font, str, fs, 1)
	pos := rl.NewVector2(float32(at.X)-m.X/2, float32(at.Y)-m.Y/2)
	rl.DrawTextEx(s.font, str, pos, fs, 1, rlColor(col))
}

func (s *Surface) Dot(p dynamo.Vec, col color.NRGBA) {
	rl.DrawPixelV(vec2(p), rlColor(col))
}

// Present blits the texture to the screen. Render textures are stored
// bottom-up, hence the negative source height.
func (s *Surface) Present() {
	if !s.loaded {
		return
	}
	src := rl.NewRectangle(0, 0, float32(s.target.Texture.Width), -float32(s.target.Texture.Height))
	rl.DrawTextureRec(s.target.Texture, src, rl.NewVector2(0, 0), rl.White)
}

func (s *Surface) begin() bool {
	if !s.loaded {
		return false
	}
	rl.BeginTextureMode(s.target)
	return true
}

func vec2(v dynamo.Vec) rl.Vector2 { return rl.NewVector2(float32(v.X), float32(v.Y)) }

func rlColor(c color.NRGBA) rl.Color { return rl.NewColor(c.R, c.G, c.B, c.A) }
