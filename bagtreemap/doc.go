// Package bagtreemap sums sizes of bag messages per topic and rolls them up the topic hierarchy.
//
// Topic names are slash delimited paths. Every prefix of a topic is a node of the hierarchy
// and its size is sum of sizes of all topics under it.
package bagtreemap
