// Package cohort groups campaigns into monthly cohorts per target audience
// and builds retention, conversion and ROI matrices indexed by cohort month
// and months elapsed since the audience's first campaign.
//
// A record's cohort month is the calendar month of its date. Its offset is
// the number of whole months between that month and the earliest month seen
// for its target audience. Retention counts distinct audiences per
// (cohort month, offset) and divides each row by its offset-0 cell, so every
// row starts at exactly 1.0. A row with no offset-0 cell keeps its place in
// the matrix with every cell absent.
//
// Buckets without records are absent from the matrices rather than zero.
package cohort
