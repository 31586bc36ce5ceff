// Package sales loads the e-commerce sales dataset and computes the KPIs and
// chart series shown on the dashboard. All reductions are pure functions.
package sales
