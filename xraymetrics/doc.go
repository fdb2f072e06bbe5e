/*
Package xraymetrics defines the operational metrics of the tracing middleware itself:
how many trace entities are begun and ended, and how often instrumentation fails and
falls open.  These say nothing about the traces being recorded; they exist so that a
broken collector or recorder misconfiguration is visible on a dashboard.
*/
package xraymetrics
