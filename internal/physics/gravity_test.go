package physics

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/fieldsim/internal/dynamo"
)

var _ = Describe("GravityBoard", func() {
	var (
		board  *GravityBoard
		frame  *dynamo.Frame
		bodies []dynamo.Body
	)

	step := func() {
		for i := range bodies {
			board.Integrate(&bodies[i], frame)
		}
		board.Resolve(bodies, frame)
	}

	BeforeEach(func() {
		board = NewGravityBoard()
		frame = &dynamo.Frame{Width: 1200, Height: 800, Rand: rand.New(rand.NewSource(42))}
		bodies = board.Spawn(len(DefaultSkills), frame)
	})

	Describe("Spawn", func() {
		It("labels every body and cycles the palette", func() {
			Expect(bodies).To(HaveLen(15))
			for i, b := range bodies {
				Expect(b.Label).To(Equal(DefaultSkills[i]))
				Expect(b.Color).To(Equal(board.Palette[i%len(board.Palette)]))
				Expect(b.Radius).To(BeNumerically(">=", board.MinRadius))
				Expect(b.Radius).To(BeNumerically("<=", board.MaxRadius))
				Expect(b.Pos.Y).To(BeNumerically("<=", frame.Height/2+b.Radius))
			}
		})

		It("is reproducible for a fixed seed", func() {
			again := board.Spawn(15, &dynamo.Frame{Width: 1200, Height: 800, Rand: rand.New(rand.NewSource(42))})
			Expect(again).To(Equal(bodies))
		})
	})

	Describe("gravity", func() {
		It("settles every body on or above the floor", func() {
			for i := 0; i < 1500; i++ {
				step()
			}
			for _, b := range bodies {
				Expect(b.Pos.Y).To(BeNumerically("<=", frame.Height-b.Radius+1e-9))
				Expect(b.Pos.X).To(BeNumerically(">=", b.Radius-1e-9))
				Expect(b.Pos.X).To(BeNumerically("<=", frame.Width-b.Radius+1e-9))
			}
		})

		It("damps horizontal velocity on floor contact", func() {
			b := dynamo.Body{Pos: dynamo.Vec{X: 600, Y: 765}, Vel: dynamo.Vec{X: 10, Y: 5}, Radius: 40}
			board.Integrate(&b, frame)

			Expect(b.Pos.Y).To(Equal(760.0))
			Expect(b.Vel.X).To(BeNumerically("~", 9, 1e-12))
			Expect(b.Vel.Y).To(BeNumerically("~", -5.4*0.7, 1e-12))
		})
	})

	Describe("dragging", func() {
		BeforeEach(func() {
			for i := range bodies {
				bodies[i].Pos = dynamo.Vec{X: 2000 + 200*float64(i), Y: 2000}
			}
		})

		It("grabs the first body under the pointer", func() {
			bodies[3].Pos = dynamo.Vec{X: 100, Y: 100}
			bodies[7].Pos = dynamo.Vec{X: 105, Y: 100}

			idx := board.PointerDown(bodies, dynamo.Vec{X: 102, Y: 100})
			Expect(idx).To(Equal(3))
			Expect(bodies[3].Dragging).To(BeTrue())
			Expect(Dragged(bodies)).To(Equal(3))
		})

		It("keeps a single dragger while the pointer is held", func() {
			bodies[0].Pos = dynamo.Vec{X: 100, Y: 100}
			bodies[1].Pos = dynamo.Vec{X: 900, Y: 100}

			Expect(board.PointerDown(bodies, dynamo.Vec{X: 100, Y: 100})).To(Equal(0))
			Expect(board.PointerDown(bodies, dynamo.Vec{X: 900, Y: 100})).To(Equal(0))

			held := 0
			for _, b := range bodies {
				if b.Dragging {
					held++
				}
			}
			Expect(held).To(Equal(1))
		})

		It("snaps the held body to the pointer every frame", func() {
			bodies[0].Pos = dynamo.Vec{X: 300, Y: 300}
			board.PointerDown(bodies, bodies[0].Pos)

			for _, p := range []dynamo.Vec{{X: 320, Y: 310}, {X: 500, Y: 200}, {X: -50, Y: 900}} {
				frame.Pointer = p
				step()
				Expect(bodies[0].Pos).To(Equal(p))
			}
		})

		It("returns -1 on a miss", func() {
			Expect(board.PointerDown(bodies, dynamo.Vec{X: -500, Y: -500})).To(Equal(-1))
			Expect(Dragged(bodies)).To(Equal(-1))
		})

		It("throws the released body with a bounded random velocity", func() {
			bodies[0].Pos = dynamo.Vec{X: 300, Y: 300}
			board.PointerDown(bodies, bodies[0].Pos)
			board.PointerUp(bodies, frame)

			Expect(bodies[0].Dragging).To(BeFalse())
			Expect(bodies[0].Vel.X).To(BeNumerically("<=", board.Throw/2))
			Expect(bodies[0].Vel.X).To(BeNumerically(">=", -board.Throw/2))
			Expect(bodies[0].Vel.Y).To(BeNumerically("<=", board.Throw/2))
			Expect(bodies[0].Vel.Y).To(BeNumerically(">=", -board.Throw/2))
		})

		It("draws the same throw for the same seed", func() {
			throw := func() dynamo.Vec {
				bs := []dynamo.Body{{Pos: dynamo.Vec{X: 10, Y: 10}, Radius: 30}}
				f := &dynamo.Frame{Width: 100, Height: 100, Rand: rand.New(rand.NewSource(9))}
				board.PointerDown(bs, bs[0].Pos)
				board.PointerUp(bs, f)
				return bs[0].Vel
			}
			Expect(throw()).To(Equal(throw()))
		})
	})

	Describe("Draw", func() {
		It("strokes and labels every body", func() {
			surf := &recordingSurface{}
			board.Draw(surf, bodies, frame)

			Expect(surf.clears).To(Equal(1))
			Expect(surf.circles).To(Equal(15))
			Expect(surf.strokes).To(Equal(15))
			Expect(surf.texts).To(Equal(15))
		})
	})
})
