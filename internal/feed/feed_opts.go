package feed

type FeedOpt func(*Feed)

// WithWidth sets the wrap width for feed lines
func WithWidth(width int) FeedOpt {
	return func(f *Feed) {
		f.width = width
	}
}
