package shapes

//unitgen:derive
type TestOnly struct{ x int }
