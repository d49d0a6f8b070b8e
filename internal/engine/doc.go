// Package engine is the generic calibration engine. It opens science
// exposures through a model source, applies a resolved plan of steps to each
// one in order and writes the calibrated products.
//
// The engine knows nothing about a particular instrument. Instrument
// behaviour reaches it through the model classes bound in its
// datamodels.Source and the reference files returned by its References.
package engine
