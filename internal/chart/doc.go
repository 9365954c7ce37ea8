// Package chart renders histograms to image files with gonum/plot.
//
// Render picks the image format from the file extension. An empty histogram
// still produces an image with the title and empty axes.
package chart
