// Package hcl provides the HCL implementation of the profile Loader and the
// cty-based parameter Converter defined in the config package.
//
// A profile file holds exactly one pipeline block:
//
//	pipeline "image2_iris" {
//	  save_results = true
//	  suffix       = "cal"
//
//	  step "bkg_subtract" {
//	    combine = "median"
//	  }
//	  step "flat_field" {}
//	  step "photom" {
//	    skip = true
//	  }
//	}
//
// Steps run in block order. "skip = true" disables a step; every other
// attribute in a step block is a step parameter.
package hcl
