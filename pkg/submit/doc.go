// Package submit wires the prediction form to the /predict endpoint.
//
// A Handler waits for the document to be ready, looks up the form, result
// container and price element, and attaches a single submit listener. Every
// submit posts a snapshot of the form as multipart/form-data and, on a JSON
// reply, writes predicted_price into the price element and reveals the
// result container.
package submit
