// Package crds resolves calibration reference files the way the CRDS client
// does for a pipeline run: a context mapping selects a reference file name
// for an exposure, and the file is served from a local cache, fetched from
// the reference server on a miss.
//
// Configuration comes from the environment (CRDS_PATH, CRDS_CONTEXT,
// CRDS_SERVER_URL, CRDS_OBSERVATORY) and is read once at process start.
package crds
