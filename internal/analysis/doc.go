// Package analysis reads frequency content out of recorded body trajectories.
//
// The typical use is tuning drag feel: record the height of a dragged body,
// then look at where its spectrum peaks:
//
//	_, ys, _ := store.LoadSeries(id, storage.Column(h, "y"))
//	f := analysis.DominantFrequency(ys, 60)
//
// A soft drag spring shows up as a low peak; a stiff one either pushes the
// peak toward Nyquist or has no peak at all once relaxation damps it out.
package analysis
