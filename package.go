//
// web service that receives child-development screener results via
// webhook. each answer is classified into the skill taxonomy
// (domain -> category -> skill), answers are reduced to binary
// correctness values and aggregated into per-category score
// summaries, and both the raw skill values and the summaries are
// persisted to the relational backing store so results from
// different screener tools all land in one comparable place.
//
package scrnscore
