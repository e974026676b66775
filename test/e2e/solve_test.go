/*
Copyright 2025 The optiserve Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package e2e

import (
	"encoding/json"
	"net/http"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const mipOptimalSolution = `Problem:    plan
Rows:       1
Columns:    2
Non-zeros:  2
Status:     INTEGER OPTIMAL
Objective:  obj = 16 (MAXimum)

   No.   Row name        Activity     Lower bound   Upper bound
------ ------------    ------------- ------------- -------------
     1 budget                     10                          10

   No. Column name       Activity     Lower bound   Upper bound
------ ------------    ------------- ------------- -------------
     1 x                           4             0             5
     2 y                           2             0             4

End of output
`

const infeasibleSolution = `Problem:    plan
Rows:       1
Columns:    2
Non-zeros:  2
Status:     INFEASIBLE (FINAL)
Objective:  obj = 0 (MAXimum)
`

const workforceSolution = `Problem:    workforce
Rows:       1
Columns:    2
Non-zeros:  2
Status:     INTEGER OPTIMAL
Objective:  obj = -2 (MINimum)

   No.   Row name        Activity     Lower bound   Upper bound
------ ------------    ------------- ------------- -------------
     1 cover_0                    12                          12

   No. Column name       Activity     Lower bound   Upper bound
------ ------------    ------------- ------------- -------------
     1 keep_0_0                    2             0             3
     2 short_0                     0             0

End of output
`

const planBody = `{
	"name": "plan",
	"objective": {"direction": "maximize", "coefficients": {"x": 3, "y": 2}},
	"variables": [
		{"name": "x", "domain": "integer", "upper": 5},
		{"name": "y", "upper": 4}
	],
	"constraints": [
		{"name": "budget", "coefficients": {"x": 2, "y": 1}, "operator": "<=", "rhs": 10}
	]
}`

func postJSON(path, body string) (*http.Response, map[string]any) {
	resp, err := http.Post(httpSrv.URL+path, "application/json", strings.NewReader(body))
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	defer resp.Body.Close()

	var decoded map[string]any
	ExpectWithOffset(1, json.NewDecoder(resp.Body).Decode(&decoded)).To(Succeed())
	return resp, decoded
}

var _ = Describe("POST /v1/solve", func() {
	It("solves a MIP end to end", func() {
		stageSolution(mipOptimalSolution)

		resp, body := postJSON("/v1/solve", planBody)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body["status"]).To(Equal("optimal"))

		solution, ok := body["solution"].(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(solution["objective"]).To(BeNumerically("==", 16))
		values, ok := solution["values"].(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(values["x"]).To(BeNumerically("==", 4))
		Expect(values["y"]).To(BeNumerically("==", 2))
	})

	It("reports infeasibility as a successful solve", func() {
		stageSolution(infeasibleSolution)

		resp, body := postJSON("/v1/solve", planBody)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body["status"]).To(Equal("infeasible"))
		Expect(body).NotTo(HaveKey("solution"))
	})

	It("maps garbled solver output to a bad gateway", func() {
		// No staged solution: the solver leaves no file and prints
		// nothing the interpreter recognizes.
		resp, body := postJSON("/v1/solve", planBody)
		Expect(resp.StatusCode).To(Equal(http.StatusBadGateway))
		Expect(body["status"]).To(Equal("solver_error"))
	})

	It("rejects a model referencing undeclared variables", func() {
		resp, body := postJSON("/v1/solve", `{
			"objective": {"direction": "minimize", "coefficients": {"ghost": 1}},
			"variables": [{"name": "x"}]
		}`)
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

		errPayload, ok := body["error"].(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(errPayload["kind"]).To(Equal("MalformedInput"))
	})
})

var _ = Describe("POST /v1/workforce/optimize", func() {
	It("plans headcount end to end", func() {
		stageSolution(workforceSolution)

		resp, body := postJSON("/v1/workforce/optimize", `{
			"functions": ["ops"],
			"roles": ["analyst"],
			"workload": {"ops": 12},
			"capacity": 6,
			"currentHeadcount": {"ops|analyst": 3}
		}`)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body["status"]).To(Equal("optimal"))

		rows, ok := body["rows"].([]any)
		Expect(ok).To(BeTrue())
		Expect(rows).To(HaveLen(1))
		row := rows[0].(map[string]any)
		Expect(row["current"]).To(BeNumerically("==", 3))
		Expect(row["optimal"]).To(BeNumerically("==", 2))
		Expect(row["removed"]).To(BeNumerically("==", 1))
	})
})

var _ = Describe("GET /healthz", func() {
	It("reports ready while the solver script is invocable", func() {
		resp, err := http.Get(httpSrv.URL + "/healthz")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})
})
