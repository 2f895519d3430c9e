package aspect

import (
	"fmt"
	"math"
	"strconv"

	"github.com/pkg/errors"
)

var ErrInvalidAspectRatioIndex = errors.New("aspect invalid aspect ratio index")

// SourceImage as both X and Y of an option means "use the ratio of the loaded image".
const SourceImage = 0.0

const DefaultSelected = 2

type Option struct {
	Title string  `json:"title,omitempty"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

func Original() Option {
	return Option{Title: "Original", X: SourceImage, Y: SourceImage}
}

func Ratio(x, y float64) Option {
	return Option{X: x, Y: y}
}

func (o Option) IsSource() bool {
	return o.X == SourceImage && o.Y == SourceImage
}

// Value is the target width/height ratio. For the source option it is the
// native ratio of the image; NaN means no constraint.
func (o Option) Value(imageWidth, imageHeight float64) float64 {
	if o.IsSource() {
		return imageWidth / imageHeight
	}

	return o.X / o.Y
}

// Toggle swaps the orientation; 3:4 becomes 4:3. The source option and
// squares stay as they are.
func (o Option) Toggle() Option {
	if o.IsSource() {
		return o
	}

	return Option{Title: o.Title, X: o.Y, Y: o.X}
}

func (o Option) String() string {
	if o.Title != "" {
		return o.Title
	}

	return trim(o.X) + ":" + trim(o.Y)
}

func trim(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Options is the list the user can pick from with the one selected first.
type Options struct {
	list     []Option
	selected int
}

func NewOptions(selected int, list ...Option) (*Options, error) {
	if selected < 0 || selected >= len(list) {
		return nil, errors.Wrapf(
			ErrInvalidAspectRatioIndex,
			"index %d is out of range for %d options",
			selected, len(list),
		)
	}

	return &Options{list: append([]Option(nil), list...), selected: selected}, nil
}

func DefaultOptions() *Options {
	opts, err := NewOptions(
		DefaultSelected,
		Ratio(1, 1),
		Ratio(3, 4),
		Original(),
		Ratio(3, 2),
		Ratio(16, 9),
	)
	if err != nil {
		panic(fmt.Sprintf("how can default aspect options be invalid: %v", err))
	}

	return opts
}

func (o *Options) All() []Option {
	return append([]Option(nil), o.list...)
}

func (o *Options) Len() int {
	return len(o.list)
}

func (o *Options) Selected() Option {
	return o.list[o.selected]
}

func (o *Options) SelectedIndex() int {
	return o.selected
}

func (o *Options) Select(i int) (Option, error) {
	if i < 0 || i >= len(o.list) {
		return Option{}, errors.Wrapf(
			ErrInvalidAspectRatioIndex,
			"index %d is out of range for %d options",
			i, len(o.list),
		)
	}

	o.selected = i
	return o.list[i], nil
}

// ToggleSelected flips the orientation of the selected option in place.
func (o *Options) ToggleSelected() Option {
	o.list[o.selected] = o.list[o.selected].Toggle()
	return o.list[o.selected]
}

func isFree(ratio float64) bool {
	return math.IsNaN(ratio) || math.IsInf(ratio, 0) || ratio <= 0
}
